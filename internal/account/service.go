// Package account はアカウント管理のドメインロジックを提供する。
package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/worklog/internal/auth"
	"github.com/hitoshi/worklog/internal/model"
	"github.com/hitoshi/worklog/internal/repository"
)

// UpdateInput はアカウント更新リクエストの内容を表す。
// 空のフィールドは変更なしを意味する。
// フィールド形式の検証はハンドラー層で完了している前提。
type UpdateInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

// Service はアカウント管理のサービス層。
// アカウントの照会・更新・カスケード削除と、プロジェクトとのメンバー関係の
// 追加・削除を提供する。
type Service struct {
	accountRepo    repository.AccountRepository
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	projectRepo repository.ProjectRepository,
	membershipRepo repository.MembershipRepository,
) *Service {
	return &Service{
		accountRepo:    accountRepo,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
	}
}

// List は全アカウントを返す。管理者用。
func (s *Service) List(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.accountRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	return accounts, nil
}

// FindByID は指定IDのアカウントを返す。
func (s *Service) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(id)
	}
	return account, nil
}

// FindByUsername は指定ユーザー名のアカウントを返す。
// 認証済み主体が自身の情報を取得する際に使用する。
func (s *Service) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUnknownSubjectError()
	}
	return account, nil
}

// ListByProjectID は指定プロジェクトのメンバーアカウント一覧を返す。
func (s *Service) ListByProjectID(ctx context.Context, projectID string) ([]*model.Account, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	accounts, err := s.accountRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトメンバー一覧の取得に失敗しました: %w", err)
	}
	return accounts, nil
}

// Update は指定IDのアカウントを更新する。
// 空の入力フィールドは保存済みの値を維持する。
// ユーザー名・メールアドレスを変更する場合は一意性を確認し、
// パスワードは指定された場合のみ新しい値でハッシュ化し直す。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(id)
	}

	if input.Username != "" && input.Username != account.Username {
		taken, err := s.accountRepo.ExistsByUsername(ctx, input.Username)
		if err != nil {
			return nil, fmt.Errorf("ユーザー名の確認に失敗しました: %w", err)
		}
		if taken {
			return nil, model.NewUsernameTakenError(input.Username)
		}
		account.Username = input.Username
	}

	if input.Email != "" && input.Email != account.Email {
		taken, err := s.accountRepo.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, fmt.Errorf("メールアドレスの確認に失敗しました: %w", err)
		}
		if taken {
			return nil, model.NewEmailTakenError(input.Email)
		}
		account.Email = input.Email
	}

	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
	}

	if input.Role != "" {
		account.Role = input.Role
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("アカウントの更新に失敗しました: %w", err)
	}
	return account, nil
}

// Delete は指定IDのアカウントを削除する。
// 全プロジェクトのメンバー一覧からの除去と全記録の削除を
// 同一トランザクションで行うため、孤立した参照は残らない。
func (s *Service) Delete(ctx context.Context, id string) error {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError(id)
	}

	if err := s.accountRepo.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}

	slog.Info("account deleted",
		slog.String("account_id", id),
		slog.String("username", account.Username),
	)
	return nil
}

// AddMembership はアカウントをプロジェクトのメンバーに追加する。
// どちらかが存在しない場合は未検出エラーを返す。
// 既にメンバーである場合は何もせず成功する（冪等）。
func (s *Service) AddMembership(ctx context.Context, accountID, projectID string) error {
	if err := s.checkPair(ctx, accountID, projectID); err != nil {
		return err
	}

	if err := s.membershipRepo.Add(ctx, accountID, projectID); err != nil {
		return fmt.Errorf("メンバー関係の追加に失敗しました: %w", err)
	}

	slog.Info("membership added",
		slog.String("account_id", accountID),
		slog.String("project_id", projectID),
	)
	return nil
}

// RemoveMembership はアカウントをプロジェクトのメンバーから除去する。
// どちらかが存在しない場合は未検出エラー、関係が存在しない場合は
// 関係未検出エラーを返す。
func (s *Service) RemoveMembership(ctx context.Context, accountID, projectID string) error {
	if err := s.checkPair(ctx, accountID, projectID); err != nil {
		return err
	}

	removed, err := s.membershipRepo.Remove(ctx, accountID, projectID)
	if err != nil {
		return fmt.Errorf("メンバー関係の削除に失敗しました: %w", err)
	}
	if !removed {
		return model.NewRelationNotFoundError(accountID, projectID)
	}

	slog.Info("membership removed",
		slog.String("account_id", accountID),
		slog.String("project_id", projectID),
	)
	return nil
}

// checkPair はアカウントとプロジェクトの存在を確認する。
func (s *Service) checkPair(ctx context.Context, accountID, projectID string) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError(accountID)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return model.NewProjectNotFoundError(projectID)
	}
	return nil
}
