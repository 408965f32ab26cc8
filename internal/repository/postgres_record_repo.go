package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/worklog/internal/model"
)

// PostgresRecordRepo はPostgreSQLを使用した作業記録リポジトリ。
type PostgresRecordRepo struct {
	db *sql.DB
}

// NewPostgresRecordRepo はPostgresRecordRepoを生成する。
func NewPostgresRecordRepo(db *sql.DB) *PostgresRecordRepo {
	return &PostgresRecordRepo{db: db}
}

const recordColumns = `id, account_id, project_id, description, start_time, end_time, created_at, updated_at`

// FindByID は指定IDの記録を取得する。見つからない場合はnilを返す。
func (r *PostgresRecordRepo) FindByID(ctx context.Context, id string) (*model.Record, error) {
	rec := &model.Record{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.AccountID, &rec.ProjectID, &rec.Description,
		&rec.StartTime, &rec.EndTime, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記録の取得に失敗しました: %w", err)
	}
	return rec, nil
}

// CreateIfMember は記録のアカウントがプロジェクトのメンバーである場合にのみ記録を挿入する。
// メンバー確認と挿入を単一のINSERT ... SELECT文で行うため、
// 並行するメンバー関係の削除との競合で不整合な記録が残ることはない。
func (r *PostgresRecordRepo) CreateIfMember(ctx context.Context, record *model.Record) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO records (id, account_id, project_id, description, start_time, end_time, created_at, updated_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8
		 WHERE EXISTS (
		     SELECT 1 FROM project_members WHERE account_id = $2 AND project_id = $3
		 )`,
		record.ID, record.AccountID, record.ProjectID, record.Description,
		record.StartTime, record.EndTime, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("記録の作成に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("作成結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// Update は記録の内容と時刻を更新する。所有者とプロジェクトは変更しない。
func (r *PostgresRecordRepo) Update(ctx context.Context, record *model.Record) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE records
		 SET description = $2, start_time = $3, end_time = $4, updated_at = NOW()
		 WHERE id = $1`,
		record.ID, record.Description, record.StartTime, record.EndTime,
	)
	if err != nil {
		return fmt.Errorf("記録の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("記録が見つかりません: %s", record.ID)
	}
	return nil
}

// Delete は指定IDの記録を削除する。
func (r *PostgresRecordRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("記録の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("記録が見つかりません: %s", id)
	}
	return nil
}

// ListByAccountID は指定アカウントの全記録を開始時刻順で返す。
func (r *PostgresRecordRepo) ListByAccountID(ctx context.Context, accountID string) ([]*model.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE account_id = $1 ORDER BY start_time ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウントの記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByProjectID は指定プロジェクトの全記録を開始時刻順で返す。
func (r *PostgresRecordRepo) ListByProjectID(ctx context.Context, projectID string) ([]*model.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE project_id = $1 ORDER BY start_time ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByAccountAndProject は指定アカウントかつ指定プロジェクトの記録を開始時刻順で返す。
func (r *PostgresRecordRepo) ListByAccountAndProject(ctx context.Context, accountID, projectID string) ([]*model.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records
		 WHERE account_id = $1 AND project_id = $2
		 ORDER BY start_time ASC`,
		accountID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウントとプロジェクトの記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListAll は全記録を開始時刻順で返す。管理者用。
func (r *PostgresRecordRepo) ListAll(ctx context.Context) ([]*model.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY start_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// collectRecords は結果セットを記録のスライスに変換する。
func collectRecords(rows *sql.Rows) ([]*model.Record, error) {
	var records []*model.Record
	for rows.Next() {
		rec := &model.Record{}
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.ProjectID, &rec.Description,
			&rec.StartTime, &rec.EndTime, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("記録行の読み取りに失敗しました: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記録一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// compile-time interface check
var _ RecordRepository = (*PostgresRecordRepo)(nil)
