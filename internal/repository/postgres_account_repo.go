package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/worklog/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, username, email, password_hash, role, created_at, updated_at`

// mapAccountUniqueViolation は一意性制約違反をドメインエラーに変換する。
// 事前の存在確認と挿入の間で競合した場合も、重複として呼び出し元に伝わる。
func mapAccountUniqueViolation(err error, account *model.Account) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "accounts_username_key":
		return model.NewUsernameTakenError(account.Username)
	case "accounts_email_key":
		return model.NewEmailTakenError(account.Email)
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindByUsername はユーザー名でアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`,
		username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザー名によるアカウントの検索に失敗しました: %w", err)
	}
	return a, nil
}

// ExistsByUsername は指定ユーザー名のアカウントが存在するかを返す。
func (r *PostgresAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ユーザー名の存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// ExistsByEmail は指定メールアドレスのアカウントが存在するかを返す。
func (r *PostgresAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("メールアドレスの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はアカウントを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.Username, account.Email, account.PasswordHash, account.Role,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if apiErr := mapAccountUniqueViolation(err, account); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はアカウント情報を更新する。
func (r *PostgresAccountRepo) Update(ctx context.Context, account *model.Account) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = NOW()
		 WHERE id = $1`,
		account.ID, account.Username, account.Email, account.PasswordHash, account.Role,
	)
	if err != nil {
		if apiErr := mapAccountUniqueViolation(err, account); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("アカウントの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("アカウントが見つかりません: %s", account.ID)
	}
	return nil
}

// ListAll は全アカウントを作成日時順で返す。
func (r *PostgresAccountRepo) ListAll(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListByProjectID は指定プロジェクトのメンバーアカウント一覧を返す。
func (r *PostgresAccountRepo) ListByProjectID(ctx context.Context, projectID string) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.username, a.email, a.password_hash, a.role, a.created_at, a.updated_at
		 FROM accounts a
		 JOIN project_members pm ON pm.account_id = a.id
		 WHERE pm.project_id = $1
		 ORDER BY a.created_at ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトメンバー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// DeleteCascade はアカウントと、そのアカウントの全記録・全メンバー関係を
// 同一トランザクションで削除する。
func (r *PostgresAccountRepo) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 記録を削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE account_id = $1`, id,
	); err != nil {
		return fmt.Errorf("アカウントの記録の削除に失敗しました: %w", err)
	}

	// メンバー関係を削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM project_members WHERE account_id = $1`, id,
	); err != nil {
		return fmt.Errorf("アカウントのメンバー関係の削除に失敗しました: %w", err)
	}

	// アカウント本体を削除
	result, err := tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("アカウントが見つかりません: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// collectAccounts は結果セットをアカウントのスライスに変換する。
func collectAccounts(rows *sql.Rows) ([]*model.Account, error) {
	var accounts []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("アカウント行の読み取りに失敗しました: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アカウント一覧の走査に失敗しました: %w", err)
	}
	return accounts, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
