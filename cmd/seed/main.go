package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/config"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/repository"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/seed"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var week string

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random users, 2: insert a realistic sample week)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.StringVar(&week, "week", "", "monday of the sample week (YYYY-MM-DD, defaults to next monday)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("unable to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect by itself, so ping explicitly.
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("unable to reach the database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("no operation specified")
	case 1:
		if n <= 0 {
			slog.Error("the number of users must be positive")
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("unable to generate a random user", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("unable to insert user", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("random users inserted", slog.Int("count", n-cnt))
	case 2:
		monday := nextMonday(time.Now())
		if week != "" {
			parsed, err := time.Parse("2006-01-02", week)
			if err != nil {
				slog.Error("invalid week date", slog.String("week", week), slog.String("error", err.Error()))
				return
			}
			if parsed.Weekday() != time.Monday {
				slog.Error("the week date must be a monday", slog.String("week", week))
				return
			}
			monday = parsed
		}

		seed.SeedRealData(repo, monday)
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}

func nextMonday(from time.Time) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
