package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークン検証の失敗種別。
// 外向きのレスポンスではすべて単一の未認証エラーに集約されるが、
// 内部ログとメトリクスでは種別を保持する。
var (
	// ErrTokenMalformed はトークンがパースできないことを示す。
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid は署名が署名鍵と一致しないことを示す。
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired はトークンの有効期限が切れていることを示す。
	ErrTokenExpired = errors.New("token is expired")
)

// TokenIssuer は検証済みの主体に対して署名付きの時限トークンを発行する。
// 発行は純粋な計算であり、Credential Storeには一切アクセスしない。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer はTokenIssuerを生成する。
// secretはHMAC署名鍵、ttlはトークンの有効期間。
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// TTL は設定されたトークン有効期間を返す。
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue はsubjectに対するHS256署名付きJWTを発行する。
// 有効期限の決定性テストのため、現在時刻は引数で受け取る。
func (i *TokenIssuer) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// TokenValidator はトークン文字列から主体を復元・検証する。
// 検証は署名と有効期限のみのオフラインチェックであり、
// Credential Storeには一切アクセスしない。
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator はTokenValidatorを生成する。
func NewTokenValidator(secret []byte) *TokenValidator {
	return &TokenValidator{secret: secret}
}

// Validate はトークンを検証し、主体（ユーザー名）を返す。
// 失敗種別は順に: パース不能（ErrTokenMalformed）→ 署名不一致
// （ErrTokenSignatureInvalid）→ 期限切れ（ErrTokenExpired）。
// トークンはnowがexpires_atより厳密に前の場合のみ有効。
func (v *TokenValidator) Validate(tokenString string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			// 必須クレーム欠落などもパース不能として扱う
			return "", ErrTokenMalformed
		}
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}
