package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

// dateSet renders the placeholder list for an IN clause over n dates,
// starting at $1. Runs may target non-contiguous dates, so deletes and reads
// scoped to a run must never widen to the min-to-max range.
func dateSet(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i)
	}
	return b.String()
}

func dateArgs(dates []time.Time) []any {
	args := make([]any, len(dates))
	for i, date := range dates {
		args[i] = date
	}
	return args
}

// ReplaceRoomAssignments swaps out every room assignment on the listed dates
// for the given set, in one transaction. Re-running the optimizer for the
// same dates is therefore idempotent at the storage level.
func (r *Repository) ReplaceRoomAssignments(dates []time.Time, rooms []*domain.RoomAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`DELETE FROM room_assignments WHERE date IN (%s)`, dateSet(len(dates)))
	if _, err := tx.ExecContext(ctx, query, dateArgs(dates)...); err != nil {
		return err
	}

	for _, ra := range rooms {
		query := `
			INSERT INTO room_assignments (procedure_id, date, period, room_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		args := []any{ra.ProcedureID, ra.Date, ra.Period, ra.RoomID}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&ra.ID, &ra.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceAssignments does the same for staff assignments.
func (r *Repository) ReplaceAssignments(dates []time.Time, assignments []*domain.Assignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`DELETE FROM assignments WHERE date IN (%s)`, dateSet(len(dates)))
	if _, err := tx.ExecContext(ctx, query, dateArgs(dates)...); err != nil {
		return err
	}

	for _, a := range assignments {
		query := `
			INSERT INTO assignments (staff_id, date, period, kind, procedure_id, role, ordinal, site_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, version
		`
		args := []any{a.StaffID, a.Date, a.Period, a.Kind, a.ProcedureID, a.Role, a.Ordinal, a.SiteID}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetAssignmentsBetween(from, to time.Time) ([]*domain.Assignment, error) {
	query := `
		SELECT id, staff_id, date, period, kind, procedure_id, role, ordinal, site_id, created_at, version
		FROM assignments
		WHERE date >= $1 AND date <= $2
		ORDER BY date, period, id
	`
	return r.queryAssignments(query, from, to)
}

// GetAssignmentsForDates reads assignments for an explicit date set; a refine
// run over non-contiguous dates must not touch the dates in between.
func (r *Repository) GetAssignmentsForDates(dates []time.Time) ([]*domain.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT id, staff_id, date, period, kind, procedure_id, role, ordinal, site_id, created_at, version
		FROM assignments
		WHERE date IN (%s)
		ORDER BY date, period, id
	`, dateSet(len(dates)))
	return r.queryAssignments(query, dateArgs(dates)...)
}

func (r *Repository) queryAssignments(query string, args ...any) ([]*domain.Assignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*domain.Assignment, 0)
	for rows.Next() {
		a := &domain.Assignment{}
		dst := []any{&a.ID, &a.StaffID, &a.Date, &a.Period, &a.Kind, &a.ProcedureID, &a.Role, &a.Ordinal, &a.SiteID, &a.CreatedAt, &a.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) GetRoomAssignmentsBetween(from, to time.Time) ([]*domain.RoomAssignment, error) {
	query := `
		SELECT id, procedure_id, date, period, room_id, created_at
		FROM room_assignments
		WHERE date >= $1 AND date <= $2
		ORDER BY date, period, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*domain.RoomAssignment, 0)
	for rows.Next() {
		ra := &domain.RoomAssignment{}
		dst := []any{&ra.ID, &ra.ProcedureID, &ra.Date, &ra.Period, &ra.RoomID, &ra.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		rooms = append(rooms, ra)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rooms, nil
}

// UpdateAssignmentStaff persists the staff ids of refined assignments in one
// transaction. The swap engine only ever moves staff between existing
// records, so this is the whole write path of a refine run.
func (r *Repository) UpdateAssignmentStaff(assignments []*domain.Assignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, a := range assignments {
		query := `
			UPDATE assignments
			SET staff_id = $1, version = version + 1
			WHERE id = $2 AND version = $3
			RETURNING version
		`
		if err := tx.QueryRowContext(ctx, query, a.StaffID, a.ID, a.Version).Scan(&a.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}
