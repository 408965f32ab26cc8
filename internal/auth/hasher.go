// Package auth はパスワードハッシュ、署名付きトークンの発行・検証、
// サインアップ/サインインのビジネスロジックを提供する。
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword は平文パスワードからbcryptダイジェストを生成する。
// ソルトはbcrypt内部で生成されるため、同じ平文でも毎回異なるダイジェストになる。
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword は平文パスワードとダイジェストの一致を検証する。
// ダイジェストが不正な形式の場合もエラーにはせずfalseを返す。
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
