package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/worklog/internal/auth"
	"github.com/hitoshi/worklog/internal/model"
)

// --- モック ---

type mockPrincipalResolver struct {
	findByUsernameFn func(ctx context.Context, username string) (*model.Account, error)
}

func (m *mockPrincipalResolver) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	return m.findByUsernameFn(ctx, username)
}

type mockTokenValidator struct {
	validateFn func(tokenString string) (*auth.TokenClaims, error)
}

func (m *mockTokenValidator) Validate(tokenString string) (*auth.TokenClaims, error) {
	return m.validateFn(tokenString)
}

func validClaims() *auth.TokenClaims {
	now := time.Now()
	return &auth.TokenClaims{
		Subject:   "taro",
		IssuedAt:  now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

func resolverReturning(account *model.Account) *mockPrincipalResolver {
	return &mockPrincipalResolver{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Account, error) {
			return account, nil
		},
	}
}

// --- テスト ---

// TestAuthMiddleware_ValidToken は有効なトークンで主体が注入されることを検証する。
func TestAuthMiddleware_ValidToken(t *testing.T) {
	resolver := resolverReturning(&model.Account{
		ID:       "acc-1",
		Username: "taro",
		Role:     model.RoleUser,
	})
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (*auth.TokenClaims, error) {
			return validClaims(), nil
		},
	}

	mw := NewAuthMiddleware(resolver, validator, nil)

	var captured *Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured == nil {
		t.Fatal("expected principal in context")
	}
	if captured.AccountID != "acc-1" || captured.Username != "taro" || captured.Role != model.RoleUser {
		t.Errorf("principal = %+v", captured)
	}
}

// TestAuthMiddleware_MissingToken はトークン未指定が401になることを検証する。
func TestAuthMiddleware_MissingToken(t *testing.T) {
	mw := NewAuthMiddleware(resolverReturning(nil), &mockTokenValidator{
		validateFn: func(tokenString string) (*auth.TokenClaims, error) {
			t.Fatal("expected Validate not to be called")
			return nil, nil
		},
	}, nil)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected handler not to be called")
	}))

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}

// TestAuthMiddleware_InvalidToken は検証失敗が401になることを検証する。
func TestAuthMiddleware_InvalidToken(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (*auth.TokenClaims, error) {
			return nil, auth.ErrTokenSignatureInvalid
		},
	}

	mw := NewAuthMiddleware(resolverReturning(nil), validator, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestAuthMiddleware_ExpiredToken は期限切れトークンが403になることを検証する。
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (*auth.TokenClaims, error) {
			return nil, auth.ErrTokenExpired
		},
	}

	mw := NewAuthMiddleware(resolverReturning(nil), validator, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// TestAuthMiddleware_UnknownSubject は主体のアカウントが削除済みの場合に
// 有効なトークンでも401になることを検証する。
func TestAuthMiddleware_UnknownSubject(t *testing.T) {
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (*auth.TokenClaims, error) {
			return validClaims(), nil
		},
	}

	mw := NewAuthMiddleware(resolverReturning(nil), validator, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer orphan-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestAuthMiddleware_ResolverError は主体解決の失敗が503になることを検証する。
func TestAuthMiddleware_ResolverError(t *testing.T) {
	resolver := &mockPrincipalResolver{
		findByUsernameFn: func(ctx context.Context, username string) (*model.Account, error) {
			return nil, errors.New("connection refused")
		},
	}
	validator := &mockTokenValidator{
		validateFn: func(tokenString string) (*auth.TokenClaims, error) {
			return validClaims(), nil
		},
	}

	mw := NewAuthMiddleware(resolver, validator, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("expected handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

// mockTokenMetrics は拒否理由を記録するTokenMetricsのモック。
type mockTokenMetrics struct {
	reasons []string
}

func (m *mockTokenMetrics) RecordTokenRejected(reason string) {
	m.reasons = append(m.reasons, reason)
}

// TestAuthMiddleware_RecordsRejectionReasons はトークン拒否の理由が
// メトリクスに記録されることを検証する。
func TestAuthMiddleware_RecordsRejectionReasons(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		validateFn func(tokenString string) (*auth.TokenClaims, error)
		account    *model.Account
		wantReason string
	}{
		{
			name:       "トークン未指定",
			authHeader: "",
			validateFn: func(string) (*auth.TokenClaims, error) { return validClaims(), nil },
			wantReason: "missing",
		},
		{
			name:       "署名不正",
			authHeader: "Bearer bad-token",
			validateFn: func(string) (*auth.TokenClaims, error) { return nil, auth.ErrTokenSignatureInvalid },
			wantReason: "invalid",
		},
		{
			name:       "期限切れ",
			authHeader: "Bearer expired-token",
			validateFn: func(string) (*auth.TokenClaims, error) { return nil, auth.ErrTokenExpired },
			wantReason: "expired",
		},
		{
			name:       "主体不存在",
			authHeader: "Bearer orphan-token",
			validateFn: func(string) (*auth.TokenClaims, error) { return validClaims(), nil },
			account:    nil,
			wantReason: "unknown_subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenMetrics := &mockTokenMetrics{}
			mw := NewAuthMiddleware(resolverReturning(tt.account), &mockTokenValidator{validateFn: tt.validateFn}, tokenMetrics)
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("expected handler not to be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if len(tokenMetrics.reasons) != 1 || tokenMetrics.reasons[0] != tt.wantReason {
				t.Errorf("reasons = %v, want [%s]", tokenMetrics.reasons, tt.wantReason)
			}
		})
	}
}
