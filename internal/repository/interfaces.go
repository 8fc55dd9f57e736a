// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/masaki/fleetman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// Credential Storeとして、ユーザー名からIDとパスワードダイジェストへの
// マッピングを唯一所有する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	// 認証フローとAccess Guardの主体再解決で使用する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。ユーザー名の一意性はDB制約で保証される。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// VehicleRepository は車両データの永続化インターフェース。
type VehicleRepository interface {
	// FindByID は指定IDの車両を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)

	// List は車両一覧をskip/limitページングで返す。
	List(ctx context.Context, skip, limit int) ([]*model.Vehicle, error)

	// Create は車両を作成する。
	Create(ctx context.Context, vehicle *model.Vehicle) error

	// UpdateStatus は車両のステータスを更新する。
	UpdateStatus(ctx context.Context, id string, status model.VehicleStatus) error

	// DeleteByID は指定IDの車両を削除する。
	DeleteByID(ctx context.Context, id string) error
}
