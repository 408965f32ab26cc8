package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/worklog/internal/middleware"
	"github.com/hitoshi/worklog/internal/model"
	"github.com/hitoshi/worklog/internal/record"
)

// ProfileFinder は認証済みアカウントのプロフィール取得インターフェース。
// account.Serviceの部分集合として定義する。
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// AccountProjectLister はアカウントが参加するプロジェクトの一覧取得インターフェース。
// project.Serviceの部分集合として定義する。
type AccountProjectLister interface {
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Project, error)
}

// RecordServiceInterface は自分の記録を操作するサービスインターフェース。
type RecordServiceInterface interface {
	Create(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error)
	GetOwned(ctx context.Context, accountID, recordID string) (*model.Record, error)
	UpdateOwned(ctx context.Context, accountID, recordID string, input record.Input) (*model.Record, error)
	DeleteOwned(ctx context.Context, accountID, recordID string) error
	ListForAccount(ctx context.Context, accountID string) ([]*model.Record, error)
	ListForAccountByProject(ctx context.Context, accountID, projectID string) ([]*model.Record, error)
}

// RecordMetrics は記録作成メトリクスの記録インターフェース。
// metrics.MetricsCollectorの部分集合として定義する。nilを許容する。
type RecordMetrics interface {
	RecordRecordCreated()
}

// UserHandler は認証済みアカウント自身のリソースを扱うHTTPハンドラー。
// すべての操作は主体のアカウントIDにスコープされ、他人のリソースには
// 到達できない。
type UserHandler struct {
	accounts      ProfileFinder
	projects      AccountProjectLister
	records       RecordServiceInterface
	recordMetrics RecordMetrics
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(accounts ProfileFinder, projects AccountProjectLister, records RecordServiceInterface, recordMetrics RecordMetrics) *UserHandler {
	return &UserHandler{
		accounts:      accounts,
		projects:      projects,
		records:       records,
		recordMetrics: recordMetrics,
	}
}

// recordRequest は記録の作成・更新リクエストのボディ。
type recordRequest struct {
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// toRecordInput はリクエストボディをドメイン入力に変換する。
// 時刻はRFC 3339形式で指定する。
func toRecordInput(req recordRequest) (record.Input, error) {
	start, err := parseRFC3339(req.StartTime, "start_time")
	if err != nil {
		return record.Input{}, err
	}
	end, err := parseRFC3339(req.EndTime, "end_time")
	if err != nil {
		return record.Input{}, err
	}
	return record.Input{
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
	}, nil
}

// requirePrincipal はリクエストコンテキストから主体を取得する。
// 認証ミドルウェアを通過していない場合は401を書き込みnilを返す。
func requirePrincipal(w http.ResponseWriter, r *http.Request) *middleware.Principal {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenMissingError())
		return nil
	}
	return principal
}

// Profile は認証済みアカウント自身の情報を返す。
// GET /api/user
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	account, err := h.accounts.FindByID(r.Context(), principal.AccountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAccountResponse(account))
}

// ListProjects は自分が参加しているプロジェクトの一覧を返す。
// GET /api/user/projects
func (h *UserHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	projects, err := h.projects.ListByAccountID(r.Context(), principal.AccountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProjectResponses(projects))
}

// ListRecords は自分の記録の一覧を返す。
// GET /api/user/records
func (h *UserHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	records, err := h.records.ListForAccount(r.Context(), principal.AccountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponses(records))
}

// GetRecord は自分の記録を1件取得する。他人の記録は存在有無にかかわらず404。
// GET /api/user/records/:id
func (h *UserHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	recordID := chi.URLParam(r, "id")

	rec, err := h.records.GetOwned(r.Context(), principal.AccountID, recordID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponse(rec))
}

// ListRecordsByProject は自分の記録を指定プロジェクトに絞って返す。
// メンバーでないプロジェクトの指定は404。
// GET /api/user/records/project/:id
func (h *UserHandler) ListRecordsByProject(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	projectID := chi.URLParam(r, "id")

	records, err := h.records.ListForAccountByProject(r.Context(), principal.AccountID, projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponses(records))
}

// CreateRecord は指定プロジェクトに新しい記録を作成する。
// POST /api/user/records/new/project/:id
func (h *UserHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	projectID := chi.URLParam(r, "id")

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input, err := toRecordInput(req)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	rec, err := h.records.Create(r.Context(), principal.AccountID, projectID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recordMetrics != nil {
		h.recordMetrics.RecordRecordCreated()
	}

	writeJSONResponse(w, http.StatusCreated, toRecordResponse(rec))
}

// UpdateRecord は自分の記録を更新する。他人の記録は404。
// PUT /api/user/records/:id
func (h *UserHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	recordID := chi.URLParam(r, "id")

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input, err := toRecordInput(req)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	rec, err := h.records.UpdateOwned(r.Context(), principal.AccountID, recordID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponse(rec))
}

// DeleteRecord は自分の記録を削除する。他人の記録は404。
// DELETE /api/user/records/:id
func (h *UserHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	principal := requirePrincipal(w, r)
	if principal == nil {
		return
	}

	recordID := chi.URLParam(r, "id")

	if err := h.records.DeleteOwned(r.Context(), principal.AccountID, recordID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
