package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/worklog/internal/auth"
	"github.com/hitoshi/worklog/internal/model"
)

// chainAccounts は認証チェーンテスト用のアカウントを解決する。
func chainAccounts() *mockPrincipalResolver {
	accounts := map[string]*model.Account{
		"taro":  {ID: "acc-1", Username: "taro", Role: model.RoleUser},
		"admin": {ID: "acc-2", Username: "admin", Role: model.RoleAdmin},
	}
	return &mockPrincipalResolver{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Account, error) {
			return accounts[username], nil
		},
	}
}

// newChainRouter は本番と同じ Auth -> Policy のチェーンを組んだルーターを返す。
func newChainRouter(t *testing.T) (chi.Router, *auth.TokenService) {
	t.Helper()

	tokens := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware(chainAccounts(), tokens, nil))
		r.Use(NewPolicyMiddleware(DefaultPolicy()))
		r.Get("/api/user/records", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Get("/api/users", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	return r, tokens
}

// TestMiddlewareChain_UserToken はUSERトークンでUSERルートが通り、
// ADMINルートが拒否されることを検証する。
func TestMiddlewareChain_UserToken(t *testing.T) {
	r, tokens := newChainRouter(t)

	token, err := tokens.Issue("taro")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("user route: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("admin route: status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestMiddlewareChain_AdminToken はADMINトークンでADMINルートが通り、
// USERルートが拒否されることを検証する。
func TestMiddlewareChain_AdminToken(t *testing.T) {
	r, tokens := newChainRouter(t)

	token, err := tokens.Issue("admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("admin route: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/user/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("user route: status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestMiddlewareChain_NoToken はトークンなしのリクエストが
// ポリシー評価前に401で拒否されることを検証する。
func TestMiddlewareChain_NoToken(t *testing.T) {
	r, _ := newChainRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/records", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestMiddlewareChain_DeletedAccount はトークン発行後にアカウントが削除された場合、
// 有効期限内のトークンでも401になることを検証する。
func TestMiddlewareChain_DeletedAccount(t *testing.T) {
	r, tokens := newChainRouter(t)

	token, err := tokens.Issue("ghost")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
