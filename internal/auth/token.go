package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークン検証エラー
var (
	// ErrTokenMalformed はトークンが構造的に不正な場合のエラー。
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignatureInvalid は署名検証に失敗した場合のエラー。
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired はトークンの有効期限が切れている場合のエラー。
	ErrTokenExpired = errors.New("token expired")
)

// tokenTTL はトークンの有効期間。固定値であり設定では変更できない。
const tokenTTL = 30 * time.Minute

// TokenClaims は検証済みトークンから取り出したクレームを表す。
type TokenClaims struct {
	Subject   string // アカウントのユーザー名
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService はHS256署名付きJWTの発行と検証を行う。
// 署名鍵はプロセス起動時に一度だけ設定し、以降は読み取り専用。
// 状態を持たないため、複数インスタンスが独立してトークンを検証できる。
type TokenService struct {
	key []byte
	now func() time.Time
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(key []byte) *TokenService {
	return &TokenService{
		key: key,
		now: time.Now,
	}
}

// Issue は指定された主体（ユーザー名）に対する署名付きトークンを発行する。
// クレームは {sub, iat, exp = iat + 30分}。
func (s *TokenService) Issue(subject string) (string, error) {
	issuedAt := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tokenTTL)),
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Validate はトークンを検証し、クレームを返す。
// 署名アルゴリズムがHMAC系でない場合は署名不正として扱う。
// 失敗時はErrTokenSignatureInvalid、ErrTokenExpired、ErrTokenMalformedのいずれかを返す。
func (s *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		// 署名不一致を最優先で判定する
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	result := &TokenClaims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// IsExpired はクレームの有効期限が切れているかを返す。
// ちょうど有効期限の時刻のトークンは期限切れとして扱う。
func (s *TokenService) IsExpired(claims *TokenClaims) bool {
	return !s.now().Before(claims.ExpiresAt)
}
