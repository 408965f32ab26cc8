package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/worklog/internal/middleware"
	"github.com/hitoshi/worklog/internal/model"
	"github.com/hitoshi/worklog/internal/record"
)

// --- モック ---

type mockProfileFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Account, error)
}

func (m *mockProfileFinder) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return m.findByIDFn(ctx, id)
}

type mockProjectLister struct {
	listByAccountIDFn func(ctx context.Context, accountID string) ([]*model.Project, error)
}

func (m *mockProjectLister) ListByAccountID(ctx context.Context, accountID string) ([]*model.Project, error) {
	return m.listByAccountIDFn(ctx, accountID)
}

type mockRecordService struct {
	createFn        func(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error)
	getOwnedFn      func(ctx context.Context, accountID, recordID string) (*model.Record, error)
	updateOwnedFn   func(ctx context.Context, accountID, recordID string, input record.Input) (*model.Record, error)
	deleteOwnedFn   func(ctx context.Context, accountID, recordID string) error
	listFn          func(ctx context.Context, accountID string) ([]*model.Record, error)
	listByProjectFn func(ctx context.Context, accountID, projectID string) ([]*model.Record, error)
}

func (m *mockRecordService) Create(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error) {
	return m.createFn(ctx, accountID, projectID, input)
}

func (m *mockRecordService) GetOwned(ctx context.Context, accountID, recordID string) (*model.Record, error) {
	return m.getOwnedFn(ctx, accountID, recordID)
}

func (m *mockRecordService) UpdateOwned(ctx context.Context, accountID, recordID string, input record.Input) (*model.Record, error) {
	return m.updateOwnedFn(ctx, accountID, recordID, input)
}

func (m *mockRecordService) DeleteOwned(ctx context.Context, accountID, recordID string) error {
	return m.deleteOwnedFn(ctx, accountID, recordID)
}

func (m *mockRecordService) ListForAccount(ctx context.Context, accountID string) ([]*model.Record, error) {
	return m.listFn(ctx, accountID)
}

func (m *mockRecordService) ListForAccountByProject(ctx context.Context, accountID, projectID string) ([]*model.Record, error) {
	return m.listByProjectFn(ctx, accountID, projectID)
}

type mockRecordMetrics struct {
	createdCount int
}

func (m *mockRecordMetrics) RecordRecordCreated() { m.createdCount++ }

// newUserRouter はUserHandlerのルートを構成したchi.Routerを返す。
func newUserRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/user", func(r chi.Router) {
		r.Get("/", h.Profile)
		r.Get("/projects", h.ListProjects)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/new/project/{id}", h.CreateRecord)
			r.Get("/project/{id}", h.ListRecordsByProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRecord)
				r.Put("/", h.UpdateRecord)
				r.Delete("/", h.DeleteRecord)
			})
		})
	})
	return r
}

// userRequest は主体を注入したリクエストを生成する。
func userRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	principal := &middleware.Principal{
		AccountID: "acc-1",
		Username:  "taro",
		Role:      model.RoleUser,
	}
	return req.WithContext(middleware.ContextWithPrincipal(req.Context(), principal))
}

// validRecordBody は過去の1時間の作業を表すリクエストボディを返す。
func validRecordBody() string {
	now := time.Now()
	return fmt.Sprintf(`{
		"description": "設計レビュー",
		"start_time": %q,
		"end_time": %q
	}`, now.Add(-2*time.Hour).Format(time.RFC3339), now.Add(-time.Hour).Format(time.RFC3339))
}

// --- テスト ---

// TestUserHandler_Profile は自分のアカウント情報が返ることを検証する。
func TestUserHandler_Profile(t *testing.T) {
	accounts := &mockProfileFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			if id != "acc-1" {
				t.Errorf("id = %s, want acc-1", id)
			}
			return &model.Account{ID: "acc-1", Username: "taro", Email: "taro@example.com", Role: model.RoleUser}, nil
		},
	}
	h := NewUserHandler(accounts, nil, nil, nil)

	w := httptest.NewRecorder()
	newUserRouter(h).ServeHTTP(w, userRequest(http.MethodGet, "/api/user", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var resp accountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if resp.ID != "acc-1" || resp.Username != "taro" {
		t.Errorf("response = %+v", resp)
	}
}

// TestUserHandler_Profile_NoPrincipal は主体なしのリクエストが401になることを検証する。
func TestUserHandler_Profile_NoPrincipal(t *testing.T) {
	h := NewUserHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	w := httptest.NewRecorder()
	newUserRouter(h).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestUserHandler_ListProjects は自分の参加プロジェクトの一覧が返ることを検証する。
func TestUserHandler_ListProjects(t *testing.T) {
	projects := &mockProjectLister{
		listByAccountIDFn: func(ctx context.Context, accountID string) ([]*model.Project, error) {
			if accountID != "acc-1" {
				t.Errorf("accountID = %s, want acc-1", accountID)
			}
			return []*model.Project{
				{ID: "proj-1", Name: "Project 1"},
				{ID: "proj-2", Name: "Project 2"},
			}, nil
		},
	}
	h := NewUserHandler(nil, projects, nil, nil)

	w := httptest.NewRecorder()
	newUserRouter(h).ServeHTTP(w, userRequest(http.MethodGet, "/api/user/projects", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var resp []projectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "proj-1" {
		t.Errorf("response = %+v", resp)
	}
}

// TestUserHandler_CreateRecord は記録作成時に201が返り、主体のアカウントIDと
// URLのプロジェクトIDが使われ、作成メトリクスが記録されることを検証する。
func TestUserHandler_CreateRecord(t *testing.T) {
	records := &mockRecordService{
		createFn: func(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error) {
			if accountID != "acc-1" {
				t.Errorf("accountID = %s, want acc-1", accountID)
			}
			if projectID != "proj-1" {
				t.Errorf("projectID = %s, want proj-1", projectID)
			}
			if input.Description != "設計レビュー" {
				t.Errorf("description = %s", input.Description)
			}
			return &model.Record{
				ID:          "rec-1",
				AccountID:   accountID,
				ProjectID:   projectID,
				Description: input.Description,
				StartTime:   input.StartTime,
				EndTime:     input.EndTime,
			}, nil
		},
	}
	recordMetrics := &mockRecordMetrics{}
	h := NewUserHandler(nil, nil, records, recordMetrics)

	w := httptest.NewRecorder()
	req := userRequest(http.MethodPost, "/api/user/records/new/project/proj-1", strings.NewReader(validRecordBody()))
	newUserRouter(h).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", w.Result().StatusCode, http.StatusCreated, w.Body.String())
	}
	if recordMetrics.createdCount != 1 {
		t.Errorf("createdCount = %d, want 1", recordMetrics.createdCount)
	}

	var resp recordResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if resp.ID != "rec-1" || resp.AccountID != "acc-1" || resp.ProjectID != "proj-1" {
		t.Errorf("response = %+v", resp)
	}
}

// TestUserHandler_CreateRecord_NotAMember は非メンバープロジェクトへの作成が
// 404になることを検証する。
func TestUserHandler_CreateRecord_NotAMember(t *testing.T) {
	records := &mockRecordService{
		createFn: func(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error) {
			return nil, model.NewProjectNotAMemberError(projectID)
		},
	}
	recordMetrics := &mockRecordMetrics{}
	h := NewUserHandler(nil, nil, records, recordMetrics)

	w := httptest.NewRecorder()
	req := userRequest(http.MethodPost, "/api/user/records/new/project/proj-9", strings.NewReader(validRecordBody()))
	newUserRouter(h).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
	if recordMetrics.createdCount != 0 {
		t.Errorf("createdCount = %d, want 0", recordMetrics.createdCount)
	}
}

// TestUserHandler_CreateRecord_WrongDateOrder は時刻順序の不正が409になることを検証する。
func TestUserHandler_CreateRecord_WrongDateOrder(t *testing.T) {
	records := &mockRecordService{
		createFn: func(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error) {
			return nil, model.NewWrongDateOrderError()
		},
	}
	h := NewUserHandler(nil, nil, records, nil)

	w := httptest.NewRecorder()
	req := userRequest(http.MethodPost, "/api/user/records/new/project/proj-1", strings.NewReader(validRecordBody()))
	newUserRouter(h).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

// TestUserHandler_CreateRecord_MissingTimes は時刻未指定が400になることを検証する。
func TestUserHandler_CreateRecord_MissingTimes(t *testing.T) {
	records := &mockRecordService{
		createFn: func(ctx context.Context, accountID, projectID string, input record.Input) (*model.Record, error) {
			t.Fatal("expected Create not to be called")
			return nil, nil
		},
	}
	h := NewUserHandler(nil, nil, records, nil)

	w := httptest.NewRecorder()
	req := userRequest(http.MethodPost, "/api/user/records/new/project/proj-1", strings.NewReader(`{"description": "時刻なし"}`))
	newUserRouter(h).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// TestUserHandler_GetRecord_NotFound は他人の記録へのアクセスが404になることを検証する。
func TestUserHandler_GetRecord_NotFound(t *testing.T) {
	records := &mockRecordService{
		getOwnedFn: func(ctx context.Context, accountID, recordID string) (*model.Record, error) {
			return nil, model.NewRecordNotFoundError(recordID)
		},
	}
	h := NewUserHandler(nil, nil, records, nil)

	w := httptest.NewRecorder()
	newUserRouter(h).ServeHTTP(w, userRequest(http.MethodGet, "/api/user/records/rec-other", nil))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if resp.Code != model.ErrCodeRecordNotFound {
		t.Errorf("code = %s, want %s", resp.Code, model.ErrCodeRecordNotFound)
	}
}

// TestUserHandler_UpdateRecord は記録更新時にURLのIDと主体のアカウントIDが
// サービスに渡ることを検証する。
func TestUserHandler_UpdateRecord(t *testing.T) {
	records := &mockRecordService{
		updateOwnedFn: func(ctx context.Context, accountID, recordID string, input record.Input) (*model.Record, error) {
			if accountID != "acc-1" || recordID != "rec-1" {
				t.Errorf("args = %s/%s", accountID, recordID)
			}
			return &model.Record{ID: recordID, AccountID: accountID, Description: input.Description}, nil
		},
	}
	h := NewUserHandler(nil, nil, records, nil)

	w := httptest.NewRecorder()
	req := userRequest(http.MethodPut, "/api/user/records/rec-1", strings.NewReader(validRecordBody()))
	newUserRouter(h).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Result().StatusCode, http.StatusOK, w.Body.String())
	}
}

// TestUserHandler_DeleteRecord は記録削除が204になることを検証する。
func TestUserHandler_DeleteRecord(t *testing.T) {
	deleted := false
	records := &mockRecordService{
		deleteOwnedFn: func(ctx context.Context, accountID, recordID string) error {
			deleted = true
			if accountID != "acc-1" || recordID != "rec-1" {
				t.Errorf("args = %s/%s", accountID, recordID)
			}
			return nil
		},
	}
	h := NewUserHandler(nil, nil, records, nil)

	w := httptest.NewRecorder()
	newUserRouter(h).ServeHTTP(w, userRequest(http.MethodDelete, "/api/user/records/rec-1", nil))

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if !deleted {
		t.Error("expected DeleteOwned to be called")
	}
}

// TestUserHandler_ListRecordsByProject はプロジェクト絞り込みの一覧が返ることを検証する。
func TestUserHandler_ListRecordsByProject(t *testing.T) {
	records := &mockRecordService{
		listByProjectFn: func(ctx context.Context, accountID, projectID string) ([]*model.Record, error) {
			if accountID != "acc-1" || projectID != "proj-1" {
				t.Errorf("args = %s/%s", accountID, projectID)
			}
			return []*model.Record{{ID: "rec-1", AccountID: accountID, ProjectID: projectID}}, nil
		},
	}
	h := NewUserHandler(nil, nil, records, nil)

	w := httptest.NewRecorder()
	newUserRouter(h).ServeHTTP(w, userRequest(http.MethodGet, "/api/user/records/project/proj-1", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var resp []recordResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "rec-1" {
		t.Errorf("response = %+v", resp)
	}
}
