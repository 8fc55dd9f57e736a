package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/masaki/fleetman/internal/model"
)

// VehicleServiceInterface は車両ハンドラーが必要とするサービスインターフェース。
type VehicleServiceInterface interface {
	// Create は車両を登録する。statusが空の場合はdisconnectedがデフォルト。
	Create(ctx context.Context, name, vehicleModel, status string) (*model.Vehicle, error)
	// Get は指定IDの車両を取得する。
	Get(ctx context.Context, id string) (*model.Vehicle, error)
	// List は車両一覧をskip/limitページングで返す。
	List(ctx context.Context, skip, limit int) ([]*model.Vehicle, error)
	// UpdateStatus は車両のステータスを更新する。
	UpdateStatus(ctx context.Context, id, status string) (*model.Vehicle, error)
	// Delete は指定IDの車両を削除する。
	Delete(ctx context.Context, id string) error
}

// VehicleHandler は車両管理のHTTPハンドラー。
type VehicleHandler struct {
	service VehicleServiceInterface
}

// NewVehicleHandler はVehicleHandlerを生成する。
func NewVehicleHandler(service VehicleServiceInterface) *VehicleHandler {
	return &VehicleHandler{
		service: service,
	}
}

// createVehicleRequest は車両登録リクエストのボディ。
type createVehicleRequest struct {
	Name   string `json:"name"`
	Model  string `json:"model"`
	Status string `json:"status"`
}

// updateStatusRequest はステータス更新リクエストのボディ。
type updateStatusRequest struct {
	Status string `json:"status"`
}

// vehicleResponse は車両情報のAPIレスポンス。
type vehicleResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Model  string `json:"model"`
	Status string `json:"status"`
}

// Create は車両登録を処理する。
// POST /api/vehicles
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	vehicle, err := h.service.Create(r.Context(), req.Name, req.Model, req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toVehicleResponse(vehicle))
}

// Get は車両詳細を取得する。
// GET /api/vehicles/:id
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	vehicle, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toVehicleResponse(vehicle))
}

// List は車両一覧を返す。skip/limitクエリパラメータでページングする。
// GET /api/vehicles
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := parseIntQuery(r, "skip", 0)
	limit := parseIntQuery(r, "limit", 0)

	vehicles, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]vehicleResponse, len(vehicles))
	for i, v := range vehicles {
		results[i] = toVehicleResponse(v)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// UpdateStatus は車両のステータスを更新する。
// PUT /api/vehicles/:id/status
func (h *VehicleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	vehicle, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toVehicleResponse(vehicle))
}

// Delete は指定IDの車両を削除する。
// DELETE /api/vehicles/:id
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toVehicleResponse はドメインのVehicleをAPIレスポンス型に変換する。
func toVehicleResponse(vehicle *model.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:     vehicle.ID,
		Name:   vehicle.Name,
		Model:  vehicle.Model,
		Status: string(vehicle.Status),
	}
}

// parseIntQuery はクエリパラメータを整数として解釈する。不正な値はデフォルト値にする。
func parseIntQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
