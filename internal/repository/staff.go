package repository

import (
	"context"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

// GetAllStaff loads every staff member with their competencies and ranked
// preferences in one round trip per child table.
func (r *Repository) GetAllStaff() ([]*domain.Staff, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, full_name, prefers_admin, flexible_hours, min_weekly_days, created_at, version
		FROM staff ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := make([]*domain.Staff, 0)
	byID := make(map[int64]*domain.Staff)
	for rows.Next() {
		st := &domain.Staff{
			Competencies:      make([]string, 0),
			SitePreferences:   make([]domain.SitePreference, 0),
			DoctorPreferences: make([]domain.DoctorPreference, 0),
		}
		dst := []any{&st.ID, &st.FullName, &st.PrefersAdmin, &st.FlexibleHours, &st.MinWeeklyDays, &st.CreatedAt, &st.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		staff = append(staff, st)
		byID[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadStaffCompetencies(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadStaffSitePreferences(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadStaffDoctorPreferences(ctx, byID); err != nil {
		return nil, err
	}

	return staff, nil
}

func (r *Repository) loadStaffCompetencies(ctx context.Context, byID map[int64]*domain.Staff) error {
	query := `SELECT staff_id, role FROM staff_competencies ORDER BY staff_id, role`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var staffID int64
		var role string
		if err := rows.Scan(&staffID, &role); err != nil {
			return err
		}
		if st, ok := byID[staffID]; ok {
			st.Competencies = append(st.Competencies, role)
		}
	}

	return rows.Err()
}

func (r *Repository) loadStaffSitePreferences(ctx context.Context, byID map[int64]*domain.Staff) error {
	query := `SELECT staff_id, site_id, rank FROM staff_site_preferences ORDER BY staff_id, rank`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var staffID int64
		var pref domain.SitePreference
		if err := rows.Scan(&staffID, &pref.SiteID, &pref.Rank); err != nil {
			return err
		}
		if st, ok := byID[staffID]; ok {
			st.SitePreferences = append(st.SitePreferences, pref)
		}
	}

	return rows.Err()
}

func (r *Repository) loadStaffDoctorPreferences(ctx context.Context, byID map[int64]*domain.Staff) error {
	query := `SELECT staff_id, doctor_id, rank FROM staff_doctor_preferences ORDER BY staff_id, rank`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var staffID int64
		var pref domain.DoctorPreference
		if err := rows.Scan(&staffID, &pref.DoctorID, &pref.Rank); err != nil {
			return err
		}
		if st, ok := byID[staffID]; ok {
			st.DoctorPreferences = append(st.DoctorPreferences, pref)
		}
	}

	return rows.Err()
}

// CreateStaff inserts a staff member and all their child records in one
// transaction.
func (r *Repository) CreateStaff(st *domain.Staff) error {
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
		INSERT INTO staff (full_name, prefers_admin, flexible_hours, min_weekly_days)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	args := []any{st.FullName, st.PrefersAdmin, st.FlexibleHours, st.MinWeeklyDays}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&st.ID, &st.CreatedAt, &st.Version); err != nil {
		return err
	}

	for _, role := range st.Competencies {
		query := `INSERT INTO staff_competencies (staff_id, role) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, st.ID, role); err != nil {
			return err
		}
	}
	for _, pref := range st.SitePreferences {
		query := `INSERT INTO staff_site_preferences (staff_id, site_id, rank) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, st.ID, pref.SiteID, pref.Rank); err != nil {
			return err
		}
	}
	for _, pref := range st.DoctorPreferences {
		query := `INSERT INTO staff_doctor_preferences (staff_id, doctor_id, rank) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, st.ID, pref.DoctorID, pref.Rank); err != nil {
			return err
		}
	}

	return tx.Commit()
}
