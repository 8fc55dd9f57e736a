// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/masaki/fleetman/internal/auth"
	"github.com/masaki/fleetman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("authenticated_user")

// TokenValidator はBearerトークンの検証に必要なインターフェース。
// auth.TokenValidatorの部分集合として定義する。
type TokenValidator interface {
	Validate(tokenString string, now time.Time) (string, error)
}

// UserFinder はトークン主体の再解決に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// GuardMetrics はトークン拒否の観測に必要なインターフェース。
type GuardMetrics interface {
	RecordTokenRejected(reason string)
}

type noopGuardMetrics struct{}

func (noopGuardMetrics) RecordTokenRejected(reason string) {}

// BearerAuth はAuthorizationヘッダーのBearerトークンを検証し、
// 主体をCredential Storeに対して再解決するアクセスガード。
// トークンの署名が有効でも、ユーザーが既に削除されていれば拒否する。
// 拒否理由は外向きには区別せず、一様な401として応答する。
type BearerAuth struct {
	validator TokenValidator
	users     UserFinder
	metrics   GuardMetrics
	dbTimeout time.Duration
	now       func() time.Time
}

// NewBearerAuth はBearerAuthを生成する。
// dbTimeoutは主体再解決のストア照会に適用されるタイムアウト。
func NewBearerAuth(validator TokenValidator, users UserFinder, dbTimeout time.Duration) *BearerAuth {
	return &BearerAuth{
		validator: validator,
		users:     users,
		metrics:   noopGuardMetrics{},
		dbTimeout: dbTimeout,
		now:       time.Now,
	}
}

// WithMetrics はメトリクスレコーダーを設定する。
func (b *BearerAuth) WithMetrics(m GuardMetrics) *BearerAuth {
	b.metrics = m
	return b
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func (b *BearerAuth) WithClock(now func() time.Time) *BearerAuth {
	b.now = now
	return b
}

// Middleware は保護対象ルートに適用する認証ミドルウェアを返す。
// 検証に成功した場合、認証済みユーザーをリクエストコンテキストに注入する。
func (b *BearerAuth) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取り出す
			tokenString, ok := extractBearerToken(r)
			if !ok {
				b.reject(w, r, "missing_token")
				return
			}

			// 2. トークンを検証し主体名を得る
			subject, err := b.validator.Validate(tokenString, b.now())
			if err != nil {
				b.reject(w, r, rejectReason(err))
				return
			}

			// 3. 主体をストアに対して再解決する。
			// 削除済みユーザーのトークンはここで締め出される。
			ctx, cancel := context.WithTimeout(r.Context(), b.dbTimeout)
			user, err := b.users.FindByUsername(ctx, subject)
			cancel()
			if err != nil {
				slog.Error("failed to resolve token subject",
					slog.String("error", err.Error()),
				)
				b.reject(w, r, "store_error")
				return
			}
			if user == nil {
				b.reject(w, r, "unknown_subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// reject は一様な401レスポンスを返す。拒否理由はログとメトリクスにのみ残す。
func (b *BearerAuth) reject(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("bearer token rejected",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	b.metrics.RecordTokenRejected(reason)
	WriteUnauthenticated(w)
}

// extractBearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// rejectReason は検証エラーを内部観測用の理由ラベルに変換する。
func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	default:
		return "invalid"
	}
}

// CurrentUser はリクエストコンテキストから認証済みユーザーを取得する。
// BearerAuthミドルウェアを通過したリクエストでのみ有効。
func CurrentUser(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("authenticated user not found in context")
	}
	return user, nil
}

// UsernameFromContext はリクエストコンテキストから認証済みユーザー名を取得する。
func UsernameFromContext(ctx context.Context) (string, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
