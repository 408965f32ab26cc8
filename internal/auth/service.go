package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/worklog/internal/model"
	"github.com/hitoshi/worklog/internal/repository"
)

// SignUpInput はサインアップリクエストの内容を表す。
// フィールド形式の検証はハンドラー層で完了している前提。
type SignUpInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	tokens      *TokenService
}

// NewService はServiceを生成する。
func NewService(accountRepo repository.AccountRepository, tokens *TokenService) *Service {
	return &Service{
		accountRepo: accountRepo,
		tokens:      tokens,
	}
}

// SignUp は新規アカウントを作成する。
// ユーザー名とメールアドレスの一意性を確認し、パスワードを一度だけハッシュ化して保存する。
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*model.Account, error) {
	taken, err := s.accountRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("ユーザー名の確認に失敗しました: %w", err)
	}
	if taken {
		return nil, model.NewUsernameTakenError(input.Username)
	}

	taken, err = s.accountRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスの確認に失敗しました: %w", err)
	}
	if taken {
		return nil, model.NewEmailTakenError(input.Email)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	slog.Info("new account created",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username),
		slog.String("role", string(account.Role)),
	)

	return account, nil
}

// SignIn はユーザー名とパスワードを検証し、署名付きトークンを発行する。
// アカウント不存在とパスワード不一致は同じ認証失敗エラーとして返す。
func (s *Service) SignIn(ctx context.Context, username, password string) (string, error) {
	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return "", model.NewAuthFailedError()
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return "", model.NewAuthFailedError()
	}

	token, err := s.tokens.Issue(account.Username)
	if err != nil {
		return "", fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("account signed in",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username),
	)

	return token, nil
}
