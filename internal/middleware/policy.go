package middleware

import (
	"net/http"
	"strings"

	"github.com/hitoshi/worklog/internal/model"
)

// RolePublic は認証不要でアクセスできるルートを表すポリシー上のロール。
const RolePublic = model.Role("PUBLIC")

// PolicyRule はルートパターンと必要ロールの対応を表す。
// Patternは完全一致、または"/**"で終わるプレフィックス一致。
type PolicyRule struct {
	Pattern string
	Role    model.Role
}

// Matches はリクエストパスがこのルールに一致するかを返す。
func (r PolicyRule) Matches(path string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// DefaultPolicy はルートごとの必要ロールテーブルを返す。
// 上から順に評価し、最初に一致したルールが適用される（具体的なパターンが先）。
// どのルールにも一致しないルートはアクセス拒否となる。
// ADMINロールはUSERゲートのルートを自動的には通過しない（ロール階層は持たない）。
func DefaultPolicy() []PolicyRule {
	return []PolicyRule{
		{Pattern: "/api/auth/signin", Role: RolePublic},
		{Pattern: "/api/auth/signup", Role: RolePublic},
		{Pattern: "/healthz", Role: RolePublic},
		{Pattern: "/metrics", Role: RolePublic},
		{Pattern: "/api/user", Role: model.RoleUser},
		{Pattern: "/api/user/**", Role: model.RoleUser},
		{Pattern: "/api/admin/**", Role: model.RoleAdmin},
		{Pattern: "/api/users/**", Role: model.RoleAdmin},
		{Pattern: "/api/users", Role: model.RoleAdmin},
		{Pattern: "/api/projects/**", Role: model.RoleAdmin},
		{Pattern: "/api/projects", Role: model.RoleAdmin},
	}
}

// NewPolicyMiddleware は宣言的なロールポリシーを適用するミドルウェアを返す。
// 認証ミドルウェアの後段に配置すること。
// 一致ルールがPUBLICの場合は主体の有無にかかわらず通過させる。
// 一致ルールがロールを要求する場合、主体のロールと完全一致しなければ403を返す。
// 一致ルールがない場合は403で拒否する（デフォルト拒否）。
func NewPolicyMiddleware(rules []PolicyRule) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rule := range rules {
				if !rule.Matches(r.URL.Path) {
					continue
				}

				if rule.Role == RolePublic {
					next.ServeHTTP(w, r)
					return
				}

				principal, err := PrincipalFromContext(r.Context())
				if err != nil || principal.Role != rule.Role {
					WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			// 未登録ルートはデフォルトで拒否
			WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		})
	}
}
