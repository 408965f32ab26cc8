package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/worklog/internal/metrics"
	"github.com/hitoshi/worklog/internal/middleware"
)

// Pinger はデータストアの疎通確認インターフェース。
// *sql.DBの部分集合として定義する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	StoreTimeout      time.Duration
	RateLimiter       *middleware.RateLimiter
	PrincipalResolver middleware.PrincipalResolver
	TokenValidator    middleware.TokenValidator

	// 可観測性
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
	DB       Pinger

	// ドメインサービス
	AuthService    AuthServiceInterface
	AccountService AccountServiceInterface
	ProjectService ProjectServiceInterface
	RecordService  RecordServiceInterface
	RecordAdmin    RecordAdminServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	  公開ルート:   RateLimit(Auth)
//	  保護ルート:   Auth → Policy → RateLimit(General)
//
// 認可は宣言的なポリシーテーブル（middleware.DefaultPolicy）で行い、
// ポリシーに登録されていないルートはデフォルトで拒否される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	if deps.StoreTimeout > 0 {
		r.Use(middleware.NewTimeoutMiddleware(deps.StoreTimeout))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics)
	userHandler := NewUserHandler(deps.AccountService, deps.ProjectService, deps.RecordService, deps.Metrics)
	accountHandler := NewAccountHandler(deps.AccountService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	recordAdminHandler := NewRecordAdminHandler(deps.RecordAdmin)

	// --- 公開ルート ---

	// サインアップ・サインイン（接続元IPごとのレート制限）
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.AuthMiddleware())
		}
		r.Post("/api/auth/signup", authHandler.SignUp)
		r.Post("/api/auth/signin", authHandler.SignIn)
	})

	// 死活監視
	r.Get("/healthz", healthzHandler(deps.DB))

	// Prometheusスクレイプ
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 保護ルート ---
	// ミドルウェアスタック: Auth → Policy → RateLimit(General)
	r.Group(func(r chi.Router) {
		var tokenMetrics middleware.TokenMetrics
		if deps.Metrics != nil {
			tokenMetrics = deps.Metrics
		}
		r.Use(middleware.NewAuthMiddleware(deps.PrincipalResolver, deps.TokenValidator, tokenMetrics))
		r.Use(middleware.NewPolicyMiddleware(middleware.DefaultPolicy()))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// 自分のリソース（USERロール）
		r.Route("/api/user", func(r chi.Router) {
			r.Get("/", userHandler.Profile)
			r.Get("/projects", userHandler.ListProjects)

			r.Route("/records", func(r chi.Router) {
				r.Get("/", userHandler.ListRecords)
				r.Post("/new/project/{id}", userHandler.CreateRecord)
				r.Get("/project/{id}", userHandler.ListRecordsByProject)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.GetRecord)
					r.Put("/", userHandler.UpdateRecord)
					r.Delete("/", userHandler.DeleteRecord)
				})
			})
		})

		// アカウント管理（ADMINロール）
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", accountHandler.List)
			r.Get("/project/{id}", accountHandler.ListByProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", accountHandler.Get)
				r.Put("/", accountHandler.Update)
				r.Delete("/", accountHandler.Delete)

				// メンバー関係の追加・削除
				r.Post("/projects/{projectId}", accountHandler.AddMembership)
				r.Delete("/projects/{projectId}", accountHandler.RemoveMembership)
			})
		})

		// プロジェクト管理（ADMINロール）
		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/new", projectHandler.Create)
			r.Get("/user/{id}", projectHandler.ListByAccount)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Put("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)
			})
		})

		// 記録の横断照会（ADMINロール）
		r.Route("/api/admin/records", func(r chi.Router) {
			r.Get("/", recordAdminHandler.ListAll)
			r.Get("/user/{id}", recordAdminHandler.ListByAccount)
			r.Get("/project/{id}", recordAdminHandler.ListByProject)
		})
	})

	return r
}

// healthzHandler はデータストアへの疎通を確認する死活監視ハンドラーを返す。
func healthzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
