package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/masaki/fleetman/internal/model"
	"github.com/masaki/fleetman/internal/repository"
)

// LoginMetrics はログイン結果のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type LoginMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordHashDuration(seconds float64)
}

// noopLoginMetrics はメトリクス未設定時のデフォルト実装。
type noopLoginMetrics struct{}

func (noopLoginMetrics) RecordLoginSuccess()              {}
func (noopLoginMetrics) RecordLoginFailure(reason string) {}
func (noopLoginMetrics) RecordHashDuration(seconds float64) {}

// Service は認証フロー（ログイン）のビジネスロジックを提供する。
// ユーザー不在とパスワード誤りは外向きに区別できない単一のエラーに集約し、
// どのユーザー名が存在するかの漏洩を防ぐ。
type Service struct {
	users   repository.UserRepository
	hasher  *PasswordHasher
	issuer  *TokenIssuer
	metrics LoginMetrics
	now     func() time.Time

	// ユーザー不在時にも検証を実行するためのダミーダイジェスト。
	// 存在するユーザーとの応答時間差によるユーザー名列挙を防ぐ。
	dummyDigest string
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, hasher *PasswordHasher, issuer *TokenIssuer) *Service {
	// 起動時に1回だけ生成する。失敗は乱数枯渇などの環境異常のみ。
	dummy, err := hasher.Hash("fleetman-dummy-password-for-timing")
	if err != nil {
		slog.Error("failed to precompute dummy digest", slog.String("error", err.Error()))
		dummy = ""
	}

	return &Service{
		users:       users,
		hasher:      hasher,
		issuer:      issuer,
		metrics:     noopLoginMetrics{},
		now:         time.Now,
		dummyDigest: dummy,
	}
}

// WithMetrics はメトリクスコレクタを設定する。
func (s *Service) WithMetrics(m LoginMetrics) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login はユーザー名とパスワードを検証し、アクセストークンを発行する。
// 認証失敗（ユーザー不在・パスワード誤り）はmodel.APIErrorの
// INVALID_CREDENTIALSとして返し、両者を区別しない。
// ハッシュ検証は有界セマフォ上で実行され、待機中のctxキャンセルで中断する。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	// ユーザー不在でもダミーダイジェストに対して検証を実行し、
	// 応答時間でユーザー名の存在が判別できないようにする
	digest := s.dummyDigest
	if user != nil {
		digest = user.PasswordHash
	}

	start := time.Now()
	ok, err := s.hasher.VerifyWithContext(ctx, password, digest)
	if err != nil {
		return "", fmt.Errorf("password verification aborted: %w", err)
	}
	s.metrics.RecordHashDuration(time.Since(start).Seconds())

	if user == nil || !ok {
		s.metrics.RecordLoginFailure("invalid_credentials")
		slog.Warn("login failed", slog.String("username", username))
		return "", model.NewInvalidCredentialsError()
	}

	token, err := s.issuer.Issue(user.Username, s.now())
	if err != nil {
		s.metrics.RecordLoginFailure("token_issue_error")
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordLoginSuccess()
	slog.Info("login succeeded", slog.String("username", username))
	return token, nil
}
