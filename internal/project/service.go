// Package project はプロジェクト管理のドメインロジックを提供する。
package project

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hitoshi/worklog/internal/model"
	"github.com/hitoshi/worklog/internal/repository"
)

// Service はプロジェクト管理のサービス層。
type Service struct {
	projectRepo repository.ProjectRepository
	accountRepo repository.AccountRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(projectRepo repository.ProjectRepository, accountRepo repository.AccountRepository) *Service {
	return &Service{
		projectRepo: projectRepo,
		accountRepo: accountRepo,
	}
}

// List は全プロジェクトを返す。管理者用。
func (s *Service) List(ctx context.Context) ([]*model.Project, error) {
	projects, err := s.projectRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// FindByID は指定IDのプロジェクトを返す。
func (s *Service) FindByID(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(id)
	}
	return project, nil
}

// ListByAccountID は指定アカウントがメンバーであるプロジェクト一覧を返す。
// アカウントが存在しない場合は未検出エラーを返す。
func (s *Service) ListByAccountID(ctx context.Context, accountID string) ([]*model.Project, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}

	projects, err := s.projectRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// Create は新しいプロジェクトを作成する。
// プロジェクト名は全体で一意でなければならない。
func (s *Service) Create(ctx context.Context, name string) (*model.Project, error) {
	taken, err := s.projectRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト名の確認に失敗しました: %w", err)
	}
	if taken {
		return nil, model.NewProjectNameTakenError(name)
	}

	project := &model.Project{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}

	slog.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("name", project.Name),
	)
	return project, nil
}

// Update は指定IDのプロジェクト名を変更する。
// 名前を変更する場合は一意性を確認する。
func (s *Service) Update(ctx context.Context, id, name string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(id)
	}

	if name != project.Name {
		taken, err := s.projectRepo.ExistsByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("プロジェクト名の確認に失敗しました: %w", err)
		}
		if taken {
			return nil, model.NewProjectNameTakenError(name)
		}
	}

	project.Name = name
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	return project, nil
}

// Delete は指定IDのプロジェクトを削除する。
// 全アカウントのメンバー一覧からの除去と全記録の削除を
// 同一トランザクションで行うため、孤立した参照は残らない。
func (s *Service) Delete(ctx context.Context, id string) error {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return model.NewProjectNotFoundError(id)
	}

	if err := s.projectRepo.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}

	slog.Info("project deleted",
		slog.String("project_id", id),
		slog.String("name", project.Name),
	)
	return nil
}
