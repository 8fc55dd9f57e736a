// Package user はユーザー登録・管理のビジネスロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/masaki/fleetman/internal/auth"
	"github.com/masaki/fleetman/internal/model"
	"github.com/masaki/fleetman/internal/repository"
)

// bcryptは72バイトを超える入力を受け付けないため、登録時に検証する。
const maxPasswordBytes = 72

// Service はユーザー管理に関するビジネスロジックを提供する。
type Service struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, hasher *auth.PasswordHasher) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		now:    time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register は新規ユーザーを登録する。
// パスワードはハッシュ化してから永続化し、平文は保持しない。
// ユーザー名の重複はUSERNAME_TAKENエラーとして返す。
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.HashWithContext(ctx, password)
	if err != nil {
		// ハッシュ失敗は環境異常であり、大きくログに残す
		slog.Error("password hashing failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameConflict) {
			return nil, model.NewUsernameTakenError(username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", username),
	)
	return user, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Delete は指定IDのユーザーを削除する。
// 削除後も発行済みトークンは自然失効まで署名上は有効だが、
// Access Guardの主体再解決により保護操作からは即座に締め出される。
func (s *Service) Delete(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(id)
	}

	if err := s.users.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted",
		slog.String("user_id", id),
		slog.String("username", user.Username),
	)
	return nil
}

// DeleteByUsername はユーザー名で指定されたユーザーを削除する。
// 管理CLI（user deleteサブコマンド）で使用する。
func (s *Service) DeleteByUsername(ctx context.Context, username string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(username)
	}
	return s.Delete(ctx, user.ID)
}

// validateCredentials は登録時のユーザー名・パスワードを検証する。
func validateCredentials(username, password string) error {
	if username == "" {
		return model.NewValidationError("ユーザー名が空です")
	}
	if password == "" {
		return model.NewValidationError("パスワードが空です")
	}
	if len(password) > maxPasswordBytes {
		return model.NewValidationError(fmt.Sprintf("パスワードは%dバイト以内で指定してください", maxPasswordBytes))
	}
	return nil
}
