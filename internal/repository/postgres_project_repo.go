package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/worklog/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// mapProjectUniqueViolation は一意性制約違反をドメインエラーに変換する。
// 事前の存在確認と挿入の間で競合した場合も、重複として呼び出し元に伝わる。
func mapProjectUniqueViolation(err error, project *model.Project) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "projects_name_key" {
		return model.NewProjectNameTakenError(project.Name)
	}
	return nil
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return p, nil
}

// ExistsByName は指定名のプロジェクトが存在するかを返す。
func (r *PostgresProjectRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM projects WHERE name = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("プロジェクト名の存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		project.ID, project.Name, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		if apiErr := mapProjectUniqueViolation(err, project); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプロジェクト情報を更新する。
func (r *PostgresProjectRepo) Update(ctx context.Context, project *model.Project) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = $2, updated_at = NOW() WHERE id = $1`,
		project.ID, project.Name,
	)
	if err != nil {
		if apiErr := mapProjectUniqueViolation(err, project); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("プロジェクトが見つかりません: %s", project.ID)
	}
	return nil
}

// ListAll は全プロジェクトを作成日時順で返す。
func (r *PostgresProjectRepo) ListAll(ctx context.Context) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM projects ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// ListByAccountID は指定アカウントがメンバーであるプロジェクト一覧を返す。
func (r *PostgresProjectRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.created_at, p.updated_at
		 FROM projects p
		 JOIN project_members pm ON pm.project_id = p.id
		 WHERE pm.account_id = $1
		 ORDER BY p.created_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウントのプロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// DeleteCascade はプロジェクトと、そのプロジェクトの全記録・全メンバー関係を
// 同一トランザクションで削除する。
func (r *PostgresProjectRepo) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 記録を削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE project_id = $1`, id,
	); err != nil {
		return fmt.Errorf("プロジェクトの記録の削除に失敗しました: %w", err)
	}

	// メンバー関係を削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1`, id,
	); err != nil {
		return fmt.Errorf("プロジェクトのメンバー関係の削除に失敗しました: %w", err)
	}

	// プロジェクト本体を削除
	result, err := tx.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("プロジェクトが見つかりません: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// collectProjects は結果セットをプロジェクトのスライスに変換する。
func collectProjects(rows *sql.Rows) ([]*model.Project, error) {
	var projects []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("プロジェクト行の読み取りに失敗しました: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
