package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/nat20/internal/metrics"
	"github.com/hitoshi/nat20/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// アカウント
	AccountService AccountServiceInterface

	// セッション
	SessionService SessionServiceInterface

	// キャンペーン
	CampaignService CampaignServiceInterface

	// 監視
	SessionMetrics SessionMetrics
	StatusRecorder middleware.StatusRecorder
	Gatherer       prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Logging → Metrics → BearerToken → RateLimit
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Recoveryを最上位に適用（ミドルウェア内のpanicも拾う）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	accountHandler := NewAccountHandler(deps.AccountService)
	sessionHandler := NewSessionHandler(deps.SessionService, deps.SessionMetrics)
	campaignHandler := NewCampaignHandler(deps.CampaignService)

	// --- 運用系ルート（レート制限の対象外） ---

	r.Get("/health", healthCheck)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- APIルート ---
	// ミドルウェアスタック: BearerToken → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerTokenMiddleware())
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// アカウント管理
		r.Route("/api/accounts", func(r chi.Router) {
			// POST /api/accounts - アカウント作成（作成専用レート制限を追加）
			if deps.RateLimiter != nil {
				r.With(deps.RateLimiter.SignupMiddleware()).Post("/", accountHandler.CreateAccount)
			} else {
				r.Post("/", accountHandler.CreateAccount)
			}
		})

		// セッション管理
		r.Route("/api/session", func(r chi.Router) {
			r.Post("/signin", sessionHandler.SignIn)
			r.Post("/signout", sessionHandler.SignOut)
			r.Get("/me", sessionHandler.Me)
		})

		// キャンペーン管理
		r.Route("/api/campaigns", func(r chi.Router) {
			r.Post("/", campaignHandler.CreateCampaign)
			r.Get("/", campaignHandler.ListCampaigns)
			r.Get("/{id}", campaignHandler.GetCampaign)
		})
	})

	return r
}

// healthCheck は稼働確認用のレスポンスを返す。
// GET /health
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
