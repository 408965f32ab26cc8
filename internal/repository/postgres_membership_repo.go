package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresMembershipRepo はPostgreSQLを使用したメンバー関係リポジトリ。
// 関係は(account_id, project_id)を主キーとするproject_membersの単一行で表現する。
// 追加・削除はそれぞれ1文で完結するため、関係の片方向だけが残る状態は発生しない。
type PostgresMembershipRepo struct {
	db *sql.DB
}

// NewPostgresMembershipRepo はPostgresMembershipRepoを生成する。
func NewPostgresMembershipRepo(db *sql.DB) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{db: db}
}

// Exists は指定の組のメンバー関係が存在するかを返す。
func (r *PostgresMembershipRepo) Exists(ctx context.Context, accountID, projectID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_members WHERE account_id = $1 AND project_id = $2)`,
		accountID, projectID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("メンバー関係の存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Add はメンバー関係を追加する。既に存在する場合は何もしない（冪等）。
// 外部キー制約により、存在しないアカウント・プロジェクトへの追加はエラーになる。
func (r *PostgresMembershipRepo) Add(ctx context.Context, accountID, projectID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_members (account_id, project_id, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (account_id, project_id) DO NOTHING`,
		accountID, projectID,
	)
	if err != nil {
		return fmt.Errorf("メンバー関係の追加に失敗しました: %w", err)
	}
	return nil
}

// Remove はメンバー関係を削除する。削除された場合はtrueを返す。
func (r *PostgresMembershipRepo) Remove(ctx context.Context, accountID, projectID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE account_id = $1 AND project_id = $2`,
		accountID, projectID,
	)
	if err != nil {
		return false, fmt.Errorf("メンバー関係の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ MembershipRepository = (*PostgresMembershipRepo)(nil)
