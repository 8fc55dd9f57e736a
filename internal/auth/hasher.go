// Package auth は認証の中核を提供する。
// パスワードハッシュ、アクセストークンの発行・検証、ログインフローを含む。
package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はbcryptによるパスワードの一方向変換を提供する。
// ハッシュ計算はCPUバウンドで意図的に遅いため、同時実行数を
// 有界セマフォで制限し、ログインバースト時のワーカー枯渇を防ぐ。
type PasswordHasher struct {
	cost int
	sem  chan struct{}
}

// NewPasswordHasher はPasswordHasherを生成する。
// costはbcryptのコストファクタ。範囲外の値はbcrypt.DefaultCostに丸める。
// maxConcurrentはハッシュ計算の最大同時実行数（0以下は1に丸める）。
func NewPasswordHasher(cost, maxConcurrent int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &PasswordHasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Hash は平文パスワードからダイジェストを生成する。
// 失敗するのは環境起因の致命的な場合のみ（安全な乱数が取得できない等）。
func (h *PasswordHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードがダイジェストと一致するかを検証する。
// 不一致・不正なダイジェストはいずれもfalseを返し、エラーにはしない。
// パスワード誤りは想定内の結果であり、異常ではない。
func (h *PasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// HashWithContext はセマフォのスロットを確保してからHashを実行する。
// スロット待ちの間にctxがキャンセルされた場合はctxのエラーを返す。
func (h *PasswordHasher) HashWithContext(ctx context.Context, password string) (string, error) {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-h.sem }()

	return h.Hash(password)
}

// VerifyWithContext はセマフォのスロットを確保してからVerifyを実行する。
// スロット待ちの間にctxがキャンセルされた場合はctxのエラーを返す。
func (h *PasswordHasher) VerifyWithContext(ctx context.Context, password, digest string) (bool, error) {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	defer func() { <-h.sem }()

	return h.Verify(password, digest), nil
}
