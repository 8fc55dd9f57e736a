// Package vehicle は車両レコードのCRUDビジネスロジックを提供する。
package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/masaki/fleetman/internal/model"
	"github.com/masaki/fleetman/internal/repository"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// Service は車両管理に関するビジネスロジックを提供する。
type Service struct {
	vehicles repository.VehicleRepository
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(vehicles repository.VehicleRepository) *Service {
	return &Service{
		vehicles: vehicles,
		now:      time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create は車両を登録する。statusが空の場合はdisconnectedをデフォルトとする。
func (s *Service) Create(ctx context.Context, name, vehicleModel, status string) (*model.Vehicle, error) {
	if name == "" {
		return nil, model.NewValidationError("車両名が空です")
	}
	if vehicleModel == "" {
		return nil, model.NewValidationError("モデル名が空です")
	}

	st := model.VehicleStatusDisconnected
	if status != "" {
		st = model.VehicleStatus(status)
		if !st.IsValid() {
			return nil, model.NewInvalidStatusError(status)
		}
	}

	now := s.now()
	vehicle := &model.Vehicle{
		ID:        uuid.New().String(),
		Name:      name,
		Model:     vehicleModel,
		Status:    st,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	slog.Info("vehicle created",
		slog.String("vehicle_id", vehicle.ID),
		slog.String("name", name),
	)
	return vehicle, nil
}

// Get は指定IDの車両を取得する。存在しない場合はVEHICLE_NOT_FOUNDエラー。
func (s *Service) Get(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, model.NewVehicleNotFoundError(id)
	}
	return vehicle, nil
}

// List は車両一覧をskip/limitページングで返す。
// limitが0以下の場合はデフォルト値、上限超過の場合は上限値に丸める。
func (s *Service) List(ctx context.Context, skip, limit int) ([]*model.Vehicle, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	vehicles, err := s.vehicles.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

// UpdateStatus は車両のステータスを更新し、更新後の車両を返す。
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*model.Vehicle, error) {
	st := model.VehicleStatus(status)
	if !st.IsValid() {
		return nil, model.NewInvalidStatusError(status)
	}

	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.vehicles.UpdateStatus(ctx, id, st); err != nil {
		return nil, fmt.Errorf("failed to update vehicle status: %w", err)
	}

	vehicle.Status = st
	vehicle.UpdatedAt = s.now()

	slog.Info("vehicle status updated",
		slog.String("vehicle_id", id),
		slog.String("status", status),
	)
	return vehicle, nil
}

// Delete は指定IDの車両を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.vehicles.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	slog.Info("vehicle deleted", slog.String("vehicle_id", id))
	return nil
}
