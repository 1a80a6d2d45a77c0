package repository

import (
	"context"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

// GetProceduresBetween returns the scheduled procedures whose date falls in
// the inclusive [from, to] range.
func (r *Repository) GetProceduresBetween(from, to time.Time) ([]*domain.Procedure, error) {
	query := `
		SELECT id, date, period, intervention_type_id, doctor_id
		FROM procedures
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

	procedures := make([]*domain.Procedure, 0)
	for rows.Next() {
		proc := &domain.Procedure{}
		dst := []any{&proc.ID, &proc.Date, &proc.Period, &proc.InterventionTypeID, &proc.DoctorID}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		procedures = append(procedures, proc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return procedures, nil
}

// GetAvailabilitiesBetween returns half-day availability records. Full-day
// rows are stored once and expanded into the two half-day periods here, so
// everything downstream only ever sees half-days.
func (r *Repository) GetAvailabilitiesBetween(from, to time.Time) ([]domain.Availability, error) {
	query := `
		SELECT staff_id, date, period, full_day
		FROM availabilities
		WHERE date >= $1 AND date <= $2
		ORDER BY date, staff_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	availabilities := make([]domain.Availability, 0)
	for rows.Next() {
		var (
			av      domain.Availability
			fullDay bool
		)
		if err := rows.Scan(&av.StaffID, &av.Date, &av.Period, &fullDay); err != nil {
			return nil, err
		}

		if fullDay {
			for _, period := range domain.Periods {
				availabilities = append(availabilities, domain.Availability{
					StaffID: av.StaffID,
					Date:    av.Date,
					Period:  period,
				})
			}
			continue
		}
		availabilities = append(availabilities, av)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return availabilities, nil
}

func (r *Repository) GetAbsencesBetween(from, to time.Time) ([]domain.Absence, error) {
	query := `
		SELECT staff_id, date, full_day, period
		FROM absences
		WHERE date >= $1 AND date <= $2
		ORDER BY date, staff_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	absences := make([]domain.Absence, 0)
	for rows.Next() {
		var ab domain.Absence
		if err := rows.Scan(&ab.StaffID, &ab.Date, &ab.FullDay, &ab.Period); err != nil {
			return nil, err
		}
		absences = append(absences, ab)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return absences, nil
}

func (r *Repository) GetNeededSlotsBetween(from, to time.Time) ([]domain.NeededSlot, error) {
	query := `
		SELECT site_id, doctor_id, date, period, weight
		FROM needed_slots
		WHERE date >= $1 AND date <= $2
		ORDER BY site_id, date, period, doctor_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.NeededSlot, 0)
	for rows.Next() {
		var ns domain.NeededSlot
		dst := []any{&ns.SiteID, &ns.DoctorID, &ns.Date, &ns.Period, &ns.Weight}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		slots = append(slots, ns)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *Repository) GetAllExclusions() ([]domain.Exclusion, error) {
	query := `SELECT staff_id, doctor_id FROM exclusions ORDER BY staff_id, doctor_id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exclusions := make([]domain.Exclusion, 0)
	for rows.Next() {
		var ex domain.Exclusion
		if err := rows.Scan(&ex.StaffID, &ex.DoctorID); err != nil {
			return nil, err
		}
		exclusions = append(exclusions, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exclusions, nil
}

func (r *Repository) CreateProcedure(proc *domain.Procedure) error {
	query := `
		INSERT INTO procedures (date, period, intervention_type_id, doctor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{proc.Date, proc.Period, proc.InterventionTypeID, proc.DoctorID}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&proc.ID)
}

func (r *Repository) CreateAvailability(av *domain.Availability, fullDay bool) error {
	query := `
		INSERT INTO availabilities (staff_id, date, period, full_day)
		VALUES ($1, $2, $3, $4)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, av.StaffID, av.Date, av.Period, fullDay)
	return err
}

func (r *Repository) CreateAbsence(ab *domain.Absence) error {
	query := `
		INSERT INTO absences (staff_id, date, full_day, period)
		VALUES ($1, $2, $3, $4)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, ab.StaffID, ab.Date, ab.FullDay, ab.Period)
	return err
}

func (r *Repository) CreateNeededSlot(ns *domain.NeededSlot) error {
	query := `
		INSERT INTO needed_slots (site_id, doctor_id, date, period, weight)
		VALUES ($1, $2, $3, $4, $5)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, ns.SiteID, ns.DoctorID, ns.Date, ns.Period, ns.Weight)
	return err
}

func (r *Repository) CreateExclusion(ex *domain.Exclusion) error {
	query := `INSERT INTO exclusions (staff_id, doctor_id) VALUES ($1, $2)`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, ex.StaffID, ex.DoctorID)
	return err
}
