// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/worklog/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByUsername はユーザー名でアカウントを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// ExistsByUsername は指定ユーザー名のアカウントが存在するかを返す。
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail は指定メールアドレスのアカウントが存在するかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create はアカウントを作成する。
	Create(ctx context.Context, account *model.Account) error

	// Update はアカウント情報を更新する。パスワードハッシュとロールも更新対象。
	Update(ctx context.Context, account *model.Account) error

	// ListAll は全アカウントを返す。
	ListAll(ctx context.Context) ([]*model.Account, error)

	// ListByProjectID は指定プロジェクトのメンバーアカウント一覧を返す。
	ListByProjectID(ctx context.Context, projectID string) ([]*model.Account, error)

	// DeleteCascade はアカウントと、そのアカウントの全記録・全メンバー関係を
	// 同一トランザクションで削除する。部分的な削除状態は外部から観測されない。
	DeleteCascade(ctx context.Context, id string) error
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// ExistsByName は指定名のプロジェクトが存在するかを返す。
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error

	// Update はプロジェクト情報を更新する。
	Update(ctx context.Context, project *model.Project) error

	// ListAll は全プロジェクトを返す。
	ListAll(ctx context.Context) ([]*model.Project, error)

	// ListByAccountID は指定アカウントがメンバーであるプロジェクト一覧を返す。
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Project, error)

	// DeleteCascade はプロジェクトと、そのプロジェクトの全記録・全メンバー関係を
	// 同一トランザクションで削除する。
	DeleteCascade(ctx context.Context, id string) error
}

// MembershipRepository はアカウント・プロジェクト間メンバー関係の永続化インターフェース。
// 関係は(account_id, project_id)を主キーとする単一行で表現するため、
// 追加・削除は1文で完結し、非対称な中間状態は存在しない。
type MembershipRepository interface {
	// Exists は指定の組のメンバー関係が存在するかを返す。
	Exists(ctx context.Context, accountID, projectID string) (bool, error)

	// Add はメンバー関係を追加する。既に存在する場合は何もしない（冪等）。
	Add(ctx context.Context, accountID, projectID string) error

	// Remove はメンバー関係を削除する。削除された場合はtrueを返す。
	// 関係が存在しなかった場合はfalseを返す（エラーにはしない）。
	Remove(ctx context.Context, accountID, projectID string) (bool, error)
}

// RecordRepository は作業記録データの永続化インターフェース。
type RecordRepository interface {
	// FindByID は指定IDの記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Record, error)

	// CreateIfMember は記録のアカウントがプロジェクトのメンバーである場合にのみ
	// 記録を挿入し、挿入されたかどうかを返す。
	// メンバー確認と挿入は単一文で行われ、並行するメンバー関係の削除と競合しても
	// メンバーでないアカウントの記録が残ることはない。
	CreateIfMember(ctx context.Context, record *model.Record) (bool, error)

	// Update は記録を更新する。所有者とプロジェクトは変更しない。
	Update(ctx context.Context, record *model.Record) error

	// Delete は指定IDの記録を削除する。
	Delete(ctx context.Context, id string) error

	// ListByAccountID は指定アカウントの全記録を返す。
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Record, error)

	// ListByProjectID は指定プロジェクトの全記録を返す。
	ListByProjectID(ctx context.Context, projectID string) ([]*model.Record, error)

	// ListByAccountAndProject は指定アカウントかつ指定プロジェクトの記録を返す。
	ListByAccountAndProject(ctx context.Context, accountID, projectID string) ([]*model.Record, error)

	// ListAll は全記録を返す。管理者用。
	ListAll(ctx context.Context) ([]*model.Record, error)
}
