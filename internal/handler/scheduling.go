package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/scheduler"
)

type runRequest struct {
	Dates []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
}

const latestRunCacheKey = "scheduling_latest_run"

// RunOptimization runs the full pipeline for the requested dates: room
// allocation, model build, solve, materialization, persistence. Per-date
// redis locks guarantee a single writer per calendar date.
func (h *Handler) RunOptimization(w http.ResponseWriter, r *http.Request) {
	var req runRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dates, err := parseRunDates(req.Dates)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	lockToken := uuid.NewString()
	locked, conflict, err := h.acquireDateLocks(dates, lockToken)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !locked {
		h.errorResponse(w, r, fmt.Sprintf("une planification est déjà en cours pour le %s", conflict))
		return
	}
	defer h.releaseDateLocks(dates)

	from, to := dateRange(dates)

	input, err := h.loadSchedulingInput(from, to, dates)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	sched, err := scheduler.New(h.schedulerOptions(), input)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	res, err := sched.Run()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// Room assignments are kept even when the staff model is infeasible; an
	// infeasible run wipes stale staff assignments for the requested dates.
	if err := h.repository.ReplaceRoomAssignments(dates, res.RoomAssignments); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := h.repository.ReplaceAssignments(dates, res.Assignments); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	run := &domain.SchedulingRun{
		ID:        uuid.NewString(),
		Kind:      domain.RunOptimize,
		Dates:     dates,
		Feasible:  res.Feasible,
		Objective: res.Objective,
		RoomCount: int32(len(res.RoomAssignments)),
	}
	for _, a := range res.Assignments {
		switch a.Kind {
		case domain.KindTheater:
			run.TheaterCount++
		case domain.KindSite:
			run.SiteCount++
		case domain.KindAdmin:
			run.AdminCount++
		}
	}

	if err := h.repository.InsertSchedulingRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.cacheLatestRun(run)

	if err := h.publishRunCompleted(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	message := "planification terminée"
	if !res.Feasible {
		message = "planification impossible avec les contraintes actuelles"
	}

	h.successResponse(w, r, message, struct {
		Run                  *domain.SchedulingRun    `json:"run"`
		UnassignedProcedures []int64                  `json:"unassignedProcedures"`
		UnmetDemand          []scheduler.DemandUnit   `json:"unmetDemand"`
		Assignments          []*domain.Assignment     `json:"assignments"`
		RoomAssignments      []*domain.RoomAssignment `json:"roomAssignments"`
	}{
		Run:                  run,
		UnassignedProcedures: res.UnassignedProcedures,
		UnmetDemand:          res.UnmetDemand,
		Assignments:          res.Assignments,
		RoomAssignments:      res.RoomAssignments,
	})
}

// RunRefinement improves persisted assignments for the requested dates by
// pairwise exchanges, without re-solving.
func (h *Handler) RunRefinement(w http.ResponseWriter, r *http.Request) {
	var req runRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dates, err := parseRunDates(req.Dates)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	lockToken := uuid.NewString()
	locked, conflict, err := h.acquireDateLocks(dates, lockToken)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !locked {
		h.errorResponse(w, r, fmt.Sprintf("une planification est déjà en cours pour le %s", conflict))
		return
	}
	defer h.releaseDateLocks(dates)

	assignments, err := h.repository.GetAssignmentsForDates(dates)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if len(assignments) == 0 {
		h.errorResponse(w, r, "aucune affectation à raffiner sur cette période")
		return
	}

	from, to := dateRange(dates)
	input, err := h.loadSchedulingInput(from, to, dates)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	engine, err := scheduler.NewSwapEngine(h.schedulerOptions(), input, assignments)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	res := engine.Run()

	if res.SwapCount > 0 {
		if err := h.repository.UpdateAssignmentStaff(engine.Assignments()); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	run := &domain.SchedulingRun{
		ID:        uuid.NewString(),
		Kind:      domain.RunRefine,
		Dates:     dates,
		Feasible:  true,
		SwapCount: res.SwapCount,
		TotalGain: res.TotalGain,
	}
	for _, a := range assignments {
		switch a.Kind {
		case domain.KindTheater:
			run.TheaterCount++
		case domain.KindSite:
			run.SiteCount++
		case domain.KindAdmin:
			run.AdminCount++
		}
	}

	if err := h.repository.InsertSchedulingRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.cacheLatestRun(run)

	if err := h.publishRunCompleted(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "raffinement terminé", struct {
		Run         *domain.SchedulingRun `json:"run"`
		Iterations  int32                 `json:"iterations"`
		Assignments []*domain.Assignment  `json:"assignments"`
	}{
		Run:         run,
		Iterations:  res.Iterations,
		Assignments: engine.Assignments(),
	})
}

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	from, err := domain.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		h.errorResponse(w, r, "paramètre from invalide")
		return
	}
	to, err := domain.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		h.errorResponse(w, r, "paramètre to invalide")
		return
	}
	if to.Before(from) {
		h.errorResponse(w, r, "la date de fin précède la date de début")
		return
	}

	assignments, err := h.repository.GetAssignmentsBetween(from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	rooms, err := h.repository.GetRoomAssignmentsBetween(from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "affectations récupérées", struct {
		Assignments     []*domain.Assignment     `json:"assignments"`
		RoomAssignments []*domain.RoomAssignment `json:"roomAssignments"`
	}{
		Assignments:     assignments,
		RoomAssignments: rooms,
	})
}

func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	cached, err := h.redisClient.Get(ctx, latestRunCacheKey).Bytes()
	if err == nil {
		run := &domain.SchedulingRun{}
		if err := json.Unmarshal(cached, run); err == nil {
			h.successResponse(w, r, "dernière planification récupérée", run)
			return
		}
	} else if !errors.Is(err, redis.Nil) {
		h.logInternalServerError(r, err)
	}

	run, err := h.repository.GetLatestSchedulingRun()
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "aucune planification n'a encore été lancée")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	h.cacheLatestRun(run)

	h.successResponse(w, r, "dernière planification récupérée", run)
}

// cacheLatestRun refreshes the redis copy of the latest run summary. A cache
// failure never fails the request.
func (h *Handler) cacheLatestRun(run *domain.SchedulingRun) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	body, err := json.Marshal(run)
	if err != nil {
		slog.Error("failed to encode latest run for cache", "runID", run.ID, "error", err)
		return
	}
	if err := h.redisClient.Set(ctx, latestRunCacheKey, body, 0).Err(); err != nil {
		slog.Error("failed to cache latest run", "runID", run.ID, "error", err)
	}
}

// parseRunDates normalizes the requested dates: sorted, duplicates dropped.
// A duplicate date would otherwise collide with its own scheduling lock.
func parseRunDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		date, err := domain.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	dates = slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })
	return dates, nil
}

func dateRange(dates []time.Time) (time.Time, time.Time) {
	from, to := dates[0], dates[0]
	for _, date := range dates[1:] {
		if date.Before(from) {
			from = date
		}
		if date.After(to) {
			to = date
		}
	}
	return from, to
}

func (h *Handler) schedulerOptions() scheduler.Options {
	return scheduler.Options{
		UndesirableSiteID: h.config.Optimizer.UndesirableSiteID,
		RestrictedSiteIDs: h.config.Optimizer.RestrictedSiteIDs,
		SolverMaxNodes:    h.config.Optimizer.SolverMaxNodes,
		SwapIterationCap:  h.config.Optimizer.SwapIterationCap,
	}
}

func (h *Handler) loadSchedulingInput(from, to time.Time, dates []time.Time) (*scheduler.Input, error) {
	staff, err := h.repository.GetAllStaff()
	if err != nil {
		return nil, err
	}
	availabilities, err := h.repository.GetAvailabilitiesBetween(from, to)
	if err != nil {
		return nil, err
	}
	procedures, err := h.repository.GetProceduresBetween(from, to)
	if err != nil {
		return nil, err
	}
	interventionTypes, err := h.repository.GetAllInterventionTypes()
	if err != nil {
		return nil, err
	}
	roleRequirements, err := h.repository.GetAllRoleRequirements()
	if err != nil {
		return nil, err
	}
	multiFlowConfigs, err := h.repository.GetAllMultiFlowConfigs()
	if err != nil {
		return nil, err
	}
	rooms, err := h.repository.GetAllRooms()
	if err != nil {
		return nil, err
	}
	neededSlots, err := h.repository.GetNeededSlotsBetween(from, to)
	if err != nil {
		return nil, err
	}
	absences, err := h.repository.GetAbsencesBetween(from, to)
	if err != nil {
		return nil, err
	}
	exclusions, err := h.repository.GetAllExclusions()
	if err != nil {
		return nil, err
	}

	return &scheduler.Input{
		Dates:             dates,
		Staff:             staff,
		Availabilities:    availabilities,
		Procedures:        procedures,
		InterventionTypes: interventionTypes,
		RoleRequirements:  roleRequirements,
		MultiFlowConfigs:  multiFlowConfigs,
		Rooms:             rooms,
		NeededSlots:       neededSlots,
		Absences:          absences,
		Exclusions:        exclusions,
	}, nil
}

// acquireDateLocks takes one redis lock per date. On a conflict every lock
// already taken is released and the conflicting date is returned.
func (h *Handler) acquireDateLocks(dates []time.Time, token string) (bool, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	expiration := time.Duration(h.config.Optimizer.LockExpiration) * time.Second

	var taken []time.Time
	for _, date := range dates {
		ok, err := h.redisClient.SetNX(ctx, schedulingLockKey(date), token, expiration).Result()
		if err != nil {
			h.releaseDateLocks(taken)
			return false, "", err
		}
		if !ok {
			h.releaseDateLocks(taken)
			return false, domain.DateKey(date), nil
		}
		taken = append(taken, date)
	}

	return true, "", nil
}

func (h *Handler) releaseDateLocks(dates []time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	keys := make([]string, 0, len(dates))
	for _, date := range dates {
		keys = append(keys, schedulingLockKey(date))
	}
	if len(keys) == 0 {
		return
	}

	if err := h.redisClient.Del(ctx, keys...).Err(); err != nil {
		slog.Error("failed to release scheduling locks", "keys", keys, "error", err)
	}
}

func schedulingLockKey(date time.Time) string {
	return fmt.Sprintf("scheduling_lock_%s", domain.DateKey(date))
}

func (h *Handler) publishRunCompleted(run *domain.SchedulingRun) error {
	dateKeys := make([]string, 0, len(run.Dates))
	for _, date := range run.Dates {
		dateKeys = append(dateKeys, domain.DateKey(date))
	}

	message := domain.NotificationMessage{
		Type: "run_completed",
		To:   h.config.Email.PlannerAddress,
		Data: domain.RunCompletedMailData{
			RunID:        run.ID,
			Kind:         string(run.Kind),
			Dates:        strings.Join(dateKeys, ", "),
			Feasible:     run.Feasible,
			Objective:    run.Objective,
			TheaterCount: run.TheaterCount,
			SiteCount:    run.SiteCount,
			AdminCount:   run.AdminCount,
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.notificationChannel.PublishWithContext(
		ctx,
		"",
		"notification_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
