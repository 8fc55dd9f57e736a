package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/masaki/fleetman/internal/model"
)

// PostgresVehicleRepo はPostgreSQLを使用した車両リポジトリ。
type PostgresVehicleRepo struct {
	db *sql.DB
}

// NewPostgresVehicleRepo はPostgresVehicleRepoを生成する。
func NewPostgresVehicleRepo(db *sql.DB) *PostgresVehicleRepo {
	return &PostgresVehicleRepo{db: db}
}

// FindByID は指定IDの車両を取得する。見つからない場合はnilを返す。
func (r *PostgresVehicleRepo) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicle := &model.Vehicle{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, model, status, created_at, updated_at FROM vehicles WHERE id = $1`,
		id,
	).Scan(&vehicle.ID, &vehicle.Name, &vehicle.Model, &vehicle.Status, &vehicle.CreatedAt, &vehicle.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}

	return vehicle, nil
}

// List は車両一覧を作成日時昇順、skip/limitページングで返す。
func (r *PostgresVehicleRepo) List(ctx context.Context, skip, limit int) ([]*model.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, model, status, created_at, updated_at FROM vehicles
		 ORDER BY created_at ASC OFFSET $1 LIMIT $2`,
		skip, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*model.Vehicle
	for rows.Next() {
		vehicle := &model.Vehicle{}
		if err := rows.Scan(&vehicle.ID, &vehicle.Name, &vehicle.Model, &vehicle.Status, &vehicle.CreatedAt, &vehicle.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// Create は車両を作成する。
func (r *PostgresVehicleRepo) Create(ctx context.Context, vehicle *model.Vehicle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, name, model, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		vehicle.ID, vehicle.Name, vehicle.Model, vehicle.Status, vehicle.CreatedAt, vehicle.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vehicle: %w", err)
	}

	return nil
}

// UpdateStatus は車両のステータスとupdated_atを更新する。
func (r *PostgresVehicleRepo) UpdateStatus(ctx context.Context, id string, status model.VehicleStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vehicle not found: %s", id)
	}
	return nil
}

// DeleteByID は指定IDの車両を削除する。
func (r *PostgresVehicleRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM vehicles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vehicle not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ VehicleRepository = (*PostgresVehicleRepo)(nil)
