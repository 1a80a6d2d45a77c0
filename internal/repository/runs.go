package repository

import (
	"context"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

func (r *Repository) InsertSchedulingRun(run *domain.SchedulingRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO scheduling_runs (id, kind, feasible, objective, theater_count, site_count, admin_count, room_count, swap_count, total_gain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	args := []any{
		run.ID, run.Kind, run.Feasible, run.Objective,
		run.TheaterCount, run.SiteCount, run.AdminCount, run.RoomCount,
		run.SwapCount, run.TotalGain,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&run.CreatedAt); err != nil {
		return err
	}

	for _, date := range run.Dates {
		query := `INSERT INTO scheduling_run_dates (run_id, date) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, run.ID, date); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetLatestSchedulingRun() (*domain.SchedulingRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, kind, feasible, objective, theater_count, site_count, admin_count, room_count, swap_count, total_gain, created_at
		FROM scheduling_runs
		ORDER BY created_at DESC
		LIMIT 1
	`

	run := &domain.SchedulingRun{}
	dst := []any{
		&run.ID, &run.Kind, &run.Feasible, &run.Objective,
		&run.TheaterCount, &run.SiteCount, &run.AdminCount, &run.RoomCount,
		&run.SwapCount, &run.TotalGain, &run.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(dst...); err != nil {
		return nil, err
	}

	query = `SELECT date FROM scheduling_run_dates WHERE run_id = $1 ORDER BY date`
	rows, err := r.dbpool.QueryContext(ctx, query, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Dates = make([]time.Time, 0)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		run.Dates = append(run.Dates, date)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}
