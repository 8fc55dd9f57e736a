// Package model はドメインモデルを定義する。
package model

import "time"

// VehicleStatus は車両の接続状態を表す。
type VehicleStatus string

const (
	// VehicleStatusConnected は車両がオンラインであることを示す。
	VehicleStatusConnected VehicleStatus = "connected"
	// VehicleStatusDisconnected は車両がオフラインであることを示す。新規登録時のデフォルト。
	VehicleStatusDisconnected VehicleStatus = "disconnected"
	// VehicleStatusMaintenance は車両が整備中であることを示す。
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// IsValid はステータスが定義済みの値かどうかを判定する。
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusConnected, VehicleStatusDisconnected, VehicleStatusMaintenance:
		return true
	default:
		return false
	}
}

// Vehicle は管理対象の車両レコードを表す。
type Vehicle struct {
	ID        string
	Name      string
	Model     string
	Status    VehicleStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
