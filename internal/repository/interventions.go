package repository

import (
	"context"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

func (r *Repository) GetAllInterventionTypes() ([]*domain.InterventionType, error) {
	query := `SELECT id, name, preferred_room_id FROM intervention_types ORDER BY id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]*domain.InterventionType, 0)
	for rows.Next() {
		it := &domain.InterventionType{}
		if err := rows.Scan(&it.ID, &it.Name, &it.PreferredRoomID); err != nil {
			return nil, err
		}
		types = append(types, it)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return types, nil
}

func (r *Repository) GetAllRoleRequirements() ([]domain.RoleRequirement, error) {
	query := `
		SELECT intervention_type_id, role, count
		FROM intervention_type_roles ORDER BY intervention_type_id, role
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]domain.RoleRequirement, 0)
	for rows.Next() {
		var rr domain.RoleRequirement
		if err := rows.Scan(&rr.InterventionTypeID, &rr.Role, &rr.Count); err != nil {
			return nil, err
		}
		reqs = append(reqs, rr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *Repository) GetAllMultiFlowConfigs() ([]*domain.MultiFlowConfig, error) {
	query := `
		SELECT c.id, c.room_id, t.intervention_type_id
		FROM multi_flow_configs c
		LEFT JOIN multi_flow_config_types t ON c.id = t.multi_flow_config_id
		ORDER BY c.id, t.intervention_type_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]*domain.MultiFlowConfig, 0)
	byID := make(map[int64]*domain.MultiFlowConfig)
	for rows.Next() {
		var (
			id     int64
			roomID int64
			typeID *int64
		)
		if err := rows.Scan(&id, &roomID, &typeID); err != nil {
			return nil, err
		}

		cfg, ok := byID[id]
		if !ok {
			cfg = &domain.MultiFlowConfig{
				ID:                  id,
				RoomID:              roomID,
				InterventionTypeIDs: make([]int64, 0),
			}
			byID[id] = cfg
			configs = append(configs, cfg)
		}
		if typeID != nil {
			cfg.InterventionTypeIDs = append(cfg.InterventionTypeIDs, *typeID)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

func (r *Repository) CreateInterventionType(it *domain.InterventionType, roles []domain.RoleRequirement) error {
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
		INSERT INTO intervention_types (name, preferred_room_id)
		VALUES ($1, $2)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, query, it.Name, it.PreferredRoomID).Scan(&it.ID); err != nil {
		return err
	}

	for _, rr := range roles {
		query := `
			INSERT INTO intervention_type_roles (intervention_type_id, role, count)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, it.ID, rr.Role, rr.Count); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) CreateMultiFlowConfig(cfg *domain.MultiFlowConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO multi_flow_configs (room_id) VALUES ($1) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, cfg.RoomID).Scan(&cfg.ID); err != nil {
		return err
	}

	for _, typeID := range cfg.InterventionTypeIDs {
		query := `
			INSERT INTO multi_flow_config_types (multi_flow_config_id, intervention_type_id)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, cfg.ID, typeID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
