package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/worklog/internal/model"
)

// ProjectServiceInterface はプロジェクト管理ハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	List(ctx context.Context) ([]*model.Project, error)
	FindByID(ctx context.Context, id string) (*model.Project, error)
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Project, error)
	Create(ctx context.Context, name string) (*model.Project, error)
	Update(ctx context.Context, id, name string) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectHandler はプロジェクト管理（管理者用）のHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		service: service,
	}
}

// projectRequest はプロジェクトの作成・更新リクエストのボディ。
type projectRequest struct {
	Name string `json:"name"`
}

// validateProjectName はプロジェクト名の形式を検証する。
func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("プロジェクト名を指定してください")
	}
	if len(name) > 100 {
		return fmt.Errorf("プロジェクト名は100文字以下で指定してください")
	}
	return nil
}

// List は全プロジェクトの一覧を返す。
// GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProjectResponses(projects))
}

// Get はプロジェクトを1件取得する。
// GET /api/projects/:id
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	project, err := h.service.FindByID(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProjectResponse(project))
}

// ListByAccount は指定アカウントが参加するプロジェクトの一覧を返す。
// GET /api/projects/user/:id
func (h *ProjectHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	projects, err := h.service.ListByAccountID(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProjectResponses(projects))
}

// Create は新しいプロジェクトを作成する。
// POST /api/projects/new
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := validateProjectName(req.Name); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	project, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toProjectResponse(project))
}

// Update はプロジェクト名を更新する。
// PUT /api/projects/:id
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := validateProjectName(req.Name); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	project, err := h.service.Update(r.Context(), projectID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProjectResponse(project))
}

// Delete はプロジェクトと関連する記録・メンバー関係を一括削除する。
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), projectID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
