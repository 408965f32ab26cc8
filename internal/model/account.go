// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーロール。自分の記録とプロジェクトのみ操作できる。
	RoleUser Role = "ROLE_USER"
	// RoleAdmin は管理者ロール。アカウント・プロジェクト・全記録を管理できる。
	RoleAdmin Role = "ROLE_ADMIN"
)

// IsValid はロールが定義済みのいずれかであるかを返す。
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account はサービス利用アカウントを表す。
// usernameとemailはグローバルに一意。パスワードは生成時に一度だけハッシュ化され、
// 以降PasswordHashは不変として扱う。
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
