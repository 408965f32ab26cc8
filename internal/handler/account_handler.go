package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/worklog/internal/account"
	"github.com/hitoshi/worklog/internal/model"
)

// AccountServiceInterface はアカウント管理ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	List(ctx context.Context) ([]*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	ListByProjectID(ctx context.Context, projectID string) ([]*model.Account, error)
	Update(ctx context.Context, id string, input account.UpdateInput) (*model.Account, error)
	Delete(ctx context.Context, id string) error
	AddMembership(ctx context.Context, accountID, projectID string) error
	RemoveMembership(ctx context.Context, accountID, projectID string) error
}

// AccountHandler はアカウント管理（管理者用）のHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// updateAccountRequest はアカウント更新リクエストのボディ。
// 空のフィールドは変更なしとして扱う。
type updateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// validateUpdateAccountRequest は指定されたフィールドの形式を検証する。
func validateUpdateAccountRequest(req updateAccountRequest) error {
	if req.Username != "" && (len(req.Username) < 3 || len(req.Username) > 100) {
		return fmt.Errorf("ユーザー名は3文字以上100文字以下で指定してください")
	}
	if req.Email != "" {
		if len(req.Email) < 5 || len(req.Email) > 100 {
			return fmt.Errorf("メールアドレスは5文字以上100文字以下で指定してください")
		}
		if !emailPattern.MatchString(req.Email) {
			return fmt.Errorf("メールアドレスの形式が不正です")
		}
	}
	if req.Password != "" && (len(req.Password) < 8 || len(req.Password) > 255) {
		return fmt.Errorf("パスワードは8文字以上255文字以下で指定してください")
	}
	if req.Role != "" && !model.Role(req.Role).IsValid() {
		return fmt.Errorf("ロールの指定が不正です: %s", req.Role)
	}
	return nil
}

// List は全アカウントの一覧を返す。
// GET /api/users
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponses(accounts))
}

// Get はアカウントを1件取得する。
// GET /api/users/:id
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	acc, err := h.service.FindByID(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponse(acc))
}

// ListByProject は指定プロジェクトのメンバー一覧を返す。
// GET /api/users/project/:id
func (h *AccountHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	accounts, err := h.service.ListByProjectID(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponses(accounts))
}

// Update はアカウント情報を更新する。
// PUT /api/users/:id
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := validateUpdateAccountRequest(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	acc, err := h.service.Update(r.Context(), accountID, account.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponse(acc))
}

// Delete はアカウントと所有する記録・メンバー関係を一括削除する。
// DELETE /api/users/:id
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), accountID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMembership はアカウントをプロジェクトのメンバーに追加する。
// 既にメンバーの場合も成功として扱う（冪等）。
// POST /api/users/:id/projects/:projectId
func (h *AccountHandler) AddMembership(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	projectID := chi.URLParam(r, "projectId")

	if err := h.service.AddMembership(r.Context(), accountID, projectID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"account_id": accountID,
		"project_id": projectID,
	})
}

// RemoveMembership はアカウントとプロジェクトのメンバー関係を削除する。
// 関係が存在しない場合は404。
// DELETE /api/users/:id/projects/:projectId
func (h *AccountHandler) RemoveMembership(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	projectID := chi.URLParam(r, "projectId")

	if err := h.service.RemoveMembership(r.Context(), accountID, projectID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
