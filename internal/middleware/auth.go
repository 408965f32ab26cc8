// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/worklog/internal/auth"
	"github.com/hitoshi/worklog/internal/model"
)

// Principal は認証済みリクエストに付与される主体を表す。
type Principal struct {
	AccountID string
	Username  string
	Role      model.Role
}

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに主体を格納するためのキー。
var principalContextKey = contextKey("principal")

// PrincipalResolver はトークンの主体をアカウントに解決するインターフェース。
// repository.AccountRepositoryの部分集合として定義する。
type PrincipalResolver interface {
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
}

// TokenValidator はトークン検証のインターフェース。
// auth.TokenServiceの部分集合として定義する。
type TokenValidator interface {
	Validate(tokenString string) (*auth.TokenClaims, error)
}

// TokenMetrics はトークン拒否メトリクスの記録インターフェース。
// metrics.MetricsCollectorの部分集合として定義する。nilを許容する。
type TokenMetrics interface {
	RecordTokenRejected(reason string)
}

// extractBearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが未指定・不正な形式の場合は空文字列を返す。
func extractBearerToken(authHeader string) string {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// NewAuthMiddleware は認証ゲートのミドルウェアを返す。
// リクエストごとに次のパイプラインを同期的に1回実行する:
//  1. Bearerトークンの抽出（未指定 → 401 TOKEN_MISSING）
//  2. 署名・構造の検証（失敗 → 401 TOKEN_INVALID）
//  3. 期限の確認（期限切れ → 403 TOKEN_EXPIRED）
//  4. 主体のアカウント解決（不存在 → 401 UNKNOWN_SUBJECT）
//
// 成功時はPrincipalをリクエストコンテキストに注入する。
// リクエスト間で共有する可変状態は持たないため、任意の数のインスタンスが
// 独立してトークンを検証できる。
func NewAuthMiddleware(resolver PrincipalResolver, validator TokenValidator, tokenMetrics TokenMetrics) func(next http.Handler) http.Handler {
	rejected := func(reason string) {
		if tokenMetrics != nil {
			tokenMetrics.RecordTokenRejected(reason)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				rejected("missing")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenMissingError())
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					rejected("expired")
					WriteErrorResponse(w, http.StatusForbidden, model.NewTokenExpiredError())
					return
				}
				rejected("invalid")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
				return
			}

			account, err := resolver.FindByUsername(r.Context(), claims.Subject)
			if err != nil {
				slog.Error("failed to resolve principal",
					slog.String("subject", claims.Subject),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
				return
			}
			if account == nil {
				rejected("unknown_subject")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnknownSubjectError())
				return
			}

			principal := &Principal{
				AccountID: account.ID,
				Username:  account.Username,
				Role:      account.Role,
			}
			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext はリクエストコンテキストから主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	principal, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok || principal == nil {
		return nil, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}

// ContextWithPrincipal はコンテキストに主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
