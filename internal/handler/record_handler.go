package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/worklog/internal/model"
)

// RecordAdminServiceInterface は記録の横断照会（管理者用）のサービスインターフェース。
type RecordAdminServiceInterface interface {
	ListAll(ctx context.Context) ([]*model.Record, error)
	ListByAccount(ctx context.Context, accountID string) ([]*model.Record, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Record, error)
}

// RecordAdminHandler は全アカウントの記録を横断照会するHTTPハンドラー。
// 所有スコープを持たないため、管理者ルートでのみ公開する。
type RecordAdminHandler struct {
	service RecordAdminServiceInterface
}

// NewRecordAdminHandler はRecordAdminHandlerを生成する。
func NewRecordAdminHandler(service RecordAdminServiceInterface) *RecordAdminHandler {
	return &RecordAdminHandler{
		service: service,
	}
}

// ListAll は全記録の一覧を返す。
// GET /api/admin/records
func (h *RecordAdminHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponses(records))
}

// ListByAccount は指定アカウントの記録の一覧を返す。
// GET /api/admin/records/user/:id
func (h *RecordAdminHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	records, err := h.service.ListByAccount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponses(records))
}

// ListByProject は指定プロジェクトの記録の一覧を返す。
// GET /api/admin/records/project/:id
func (h *RecordAdminHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	records, err := h.service.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toRecordResponses(records))
}
