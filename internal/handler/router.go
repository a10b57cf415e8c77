package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teamdeck/internal/middleware"
)

// RouterDeps はルーター構築に必要な依存。
type RouterDeps struct {
	WorkspaceHandler *WorkspaceHandler
	MemberHandler    *MemberHandler
	ProjectHandler   *ProjectHandler
	TaskHandler      *TaskHandler

	SessionFinder     middleware.SessionFinder
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig

	// Logger はリクエストログの出力先。nilの場合はリクエストログを出力しない。
	Logger *slog.Logger

	// HTTPMetrics はステータスコードの記録先。nilの場合は記録しない。
	HTTPMetrics middleware.HTTPStatusRecorder

	// MetricsHandler は/metricsを提供する。nilの場合はルートを登録しない。
	MetricsHandler http.Handler
}

// NewRouter はAPIルーターを構築する。
//
// ミドルウェアの適用順: CORS → セキュリティヘッダー → リカバリ → ロギング →
// メトリクス。
// /healthと/metricsは認証不要。/api配下はセッション認証、
// ユーザー単位のレート制限、CSRFトークン検証を要求し、
// 参加エンドポイントのみ専用の厳しいバケットを追加で通る。
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// ログイン前でもトークンを取得できるようセッション認証の外に置く
		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

			r.Route("/workspaces", func(r chi.Router) {
				r.Post("/", deps.WorkspaceHandler.Create)
				r.Get("/", deps.WorkspaceHandler.List)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Get("/", deps.WorkspaceHandler.Get)
					r.Patch("/", deps.WorkspaceHandler.Update)
					r.Delete("/", deps.WorkspaceHandler.Delete)
					r.Post("/reset-invite-code", deps.WorkspaceHandler.ResetInviteCode)

					// 招待コードの総当たりを防ぐため参加のみ専用バケット
					r.With(deps.RateLimiter.JoinMiddleware()).Post("/join", deps.WorkspaceHandler.Join)

					r.Get("/members", deps.MemberHandler.List)

					r.Post("/projects", deps.ProjectHandler.Create)
					r.Get("/projects", deps.ProjectHandler.List)

					r.Post("/tasks", deps.TaskHandler.Create)
					r.Get("/tasks", deps.TaskHandler.List)
				})
			})

			r.Route("/members/{memberID}", func(r chi.Router) {
				r.Patch("/", deps.MemberHandler.UpdateRole)
				r.Delete("/", deps.MemberHandler.Remove)
			})

			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", deps.ProjectHandler.Get)
				r.Patch("/", deps.ProjectHandler.Update)
				r.Delete("/", deps.ProjectHandler.Delete)
				r.Get("/analytics", deps.ProjectHandler.Analytics)
			})

			r.Route("/tasks/{taskID}", func(r chi.Router) {
				r.Get("/", deps.TaskHandler.Get)
				r.Patch("/", deps.TaskHandler.Update)
				r.Delete("/", deps.TaskHandler.Delete)
			})
		})
	})

	return r
}
