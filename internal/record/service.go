// Package record は作業記録のドメインロジックを提供する。
// 記録は常にアカウントとプロジェクトの両方に紐づき、作成時点で
// 作成者が対象プロジェクトのメンバーであることを要求する。
package record

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/worklog/internal/model"
	"github.com/hitoshi/worklog/internal/repository"
)

// Input は記録の作成・更新リクエストの内容を表す。
type Input struct {
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

// Service は作業記録のサービス層。
type Service struct {
	recordRepo     repository.RecordRepository
	accountRepo    repository.AccountRepository
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	now            func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	recordRepo repository.RecordRepository,
	accountRepo repository.AccountRepository,
	projectRepo repository.ProjectRepository,
	membershipRepo repository.MembershipRepository,
) *Service {
	return &Service{
		recordRepo:     recordRepo,
		accountRepo:    accountRepo,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		now:            time.Now,
	}
}

// validateTimes は記録の時間範囲を検証する。
// 終了時刻は開始時刻より後、開始時刻は現在より前、
// 終了時刻は現在より後であってはならない。
func (s *Service) validateTimes(start, end time.Time) error {
	if !end.After(start) {
		return model.NewWrongDateOrderError()
	}
	now := s.now()
	if !start.Before(now) || end.After(now) {
		return model.NewWrongTimeRangeError()
	}
	return nil
}

// Create は新しい記録を作成する。
// 作成者が対象プロジェクトのメンバーでない場合はエラーを返す。
// メンバー確認と挿入は単一の文で行われるため、確認と挿入の間に
// メンバー関係が削除されても孤立した記録は生まれない。
func (s *Service) Create(ctx context.Context, accountID, projectID string, input Input) (*model.Record, error) {
	if err := s.validateTimes(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	record := &model.Record{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		ProjectID:   projectID,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
	}

	inserted, err := s.recordRepo.CreateIfMember(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("記録の作成に失敗しました: %w", err)
	}
	if !inserted {
		return nil, model.NewProjectNotAMemberError(projectID)
	}

	slog.Info("record created",
		slog.String("record_id", record.ID),
		slog.String("account_id", accountID),
		slog.String("project_id", projectID),
	)
	return record, nil
}

// GetOwned は指定アカウントが所有する記録を返す。
// 記録が存在しない場合も、別のアカウントの記録である場合も
// 同じ未検出エラーを返す。他人の記録の存在を漏らさないため。
func (s *Service) GetOwned(ctx context.Context, accountID, recordID string) (*model.Record, error) {
	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("記録の取得に失敗しました: %w", err)
	}
	if record == nil || record.AccountID != accountID {
		return nil, model.NewRecordNotFoundError(recordID)
	}
	return record, nil
}

// UpdateOwned は指定アカウントが所有する記録を更新する。
// 所有者と所属プロジェクトは変更できない。
func (s *Service) UpdateOwned(ctx context.Context, accountID, recordID string, input Input) (*model.Record, error) {
	record, err := s.GetOwned(ctx, accountID, recordID)
	if err != nil {
		return nil, err
	}

	if err := s.validateTimes(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	record.Description = input.Description
	record.StartTime = input.StartTime
	record.EndTime = input.EndTime

	if err := s.recordRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("記録の更新に失敗しました: %w", err)
	}
	return record, nil
}

// DeleteOwned は指定アカウントが所有する記録を削除する。
func (s *Service) DeleteOwned(ctx context.Context, accountID, recordID string) error {
	record, err := s.GetOwned(ctx, accountID, recordID)
	if err != nil {
		return err
	}

	if err := s.recordRepo.Delete(ctx, record.ID); err != nil {
		return fmt.Errorf("記録の削除に失敗しました: %w", err)
	}

	slog.Info("record deleted",
		slog.String("record_id", record.ID),
		slog.String("account_id", accountID),
	)
	return nil
}

// ListForAccount は指定アカウントが所有する全記録を返す。
func (s *Service) ListForAccount(ctx context.Context, accountID string) ([]*model.Record, error) {
	records, err := s.recordRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// ListForAccountByProject は指定アカウントが所有する記録のうち、
// 指定プロジェクトに属するものを返す。アカウントがプロジェクトの
// メンバーでない場合はエラーを返す。
func (s *Service) ListForAccountByProject(ctx context.Context, accountID, projectID string) ([]*model.Record, error) {
	member, err := s.membershipRepo.Exists(ctx, accountID, projectID)
	if err != nil {
		return nil, fmt.Errorf("メンバー関係の確認に失敗しました: %w", err)
	}
	if !member {
		return nil, model.NewProjectNotAMemberError(projectID)
	}

	records, err := s.recordRepo.ListByAccountAndProject(ctx, accountID, projectID)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// ListAll は全記録を返す。管理者用。
func (s *Service) ListAll(ctx context.Context) ([]*model.Record, error) {
	records, err := s.recordRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// ListByAccount は指定アカウントの全記録を返す。管理者用。
// アカウントが存在しない場合は未検出エラーを返す。
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]*model.Record, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError(accountID)
	}
	return s.ListForAccount(ctx, accountID)
}

// ListByProject は指定プロジェクトの全記録を返す。管理者用。
// プロジェクトが存在しない場合は未検出エラーを返す。
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]*model.Record, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	records, err := s.recordRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("記録一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}
