package repository

import (
	"context"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

func (r *Repository) GetAllSites() ([]*domain.Site, error) {
	query := `SELECT id, name, created_at, version FROM sites ORDER BY id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := make([]*domain.Site, 0)
	for rows.Next() {
		site := &domain.Site{}
		if err := rows.Scan(&site.ID, &site.Name, &site.CreatedAt, &site.Version); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sites, nil
}

func (r *Repository) GetAllDoctors() ([]*domain.Doctor, error) {
	query := `SELECT id, full_name, created_at, version FROM doctors ORDER BY id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := make([]*domain.Doctor, 0)
	for rows.Next() {
		doctor := &domain.Doctor{}
		if err := rows.Scan(&doctor.ID, &doctor.FullName, &doctor.CreatedAt, &doctor.Version); err != nil {
			return nil, err
		}
		doctors = append(doctors, doctor)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return doctors, nil
}

func (r *Repository) GetAllRooms() ([]*domain.Room, error) {
	query := `SELECT id, name FROM rooms ORDER BY id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*domain.Room, 0)
	for rows.Next() {
		room := &domain.Room{}
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *Repository) CreateSite(site *domain.Site) error {
	query := `INSERT INTO sites (name) VALUES ($1) RETURNING id, created_at, version`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, site.Name).Scan(&site.ID, &site.CreatedAt, &site.Version)
}

func (r *Repository) CreateDoctor(doctor *domain.Doctor) error {
	query := `INSERT INTO doctors (full_name) VALUES ($1) RETURNING id, created_at, version`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, doctor.FullName).Scan(&doctor.ID, &doctor.CreatedAt, &doctor.Version)
}

func (r *Repository) CreateRoom(room *domain.Room) error {
	query := `INSERT INTO rooms (name) VALUES ($1) RETURNING id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, room.Name).Scan(&room.ID)
}
