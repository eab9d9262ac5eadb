package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/docchat/internal/api/handlers"
	"github.com/nikhilbhutani/docchat/internal/api/middleware"
	"github.com/nikhilbhutani/docchat/internal/auth"
	"github.com/nikhilbhutani/docchat/internal/chat"
	"github.com/nikhilbhutani/docchat/internal/config"
	"github.com/nikhilbhutani/docchat/internal/document"
	"github.com/nikhilbhutani/docchat/internal/llm"
)

// Services are the domain components the HTTP layer exposes. DB, Redis and
// Queue are nil in development mode.
type Services struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Documents *document.Service
	Pipeline  interface {
		handlers.Processor
		handlers.Sweeper
	}
	Chat    *chat.Assembler
	Gateway llm.Gateway
	Queue   handlers.SweepEnqueuer
}

type Router struct {
	mux *chi.Mux
	cfg *config.Config
	svc Services
	jwt *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, svc Services) *Router {
	return &Router{
		mux: chi.NewRouter(),
		cfg: cfg,
		svc: svc,
		jwt: auth.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.DevRoles),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimit, rt.cfg.Server.RateBurst)
	r.Use(rl.Limit)

	// Health and metrics (no auth)
	health := handlers.NewHealthHandler(rt.readinessChecks())
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	docH := handlers.NewDocumentHandler(rt.svc.Documents, rt.svc.Pipeline, rt.cfg.Server.MaxUploadSize, rt.cfg.Worker.TaskTimeout)
	chatH := handlers.NewChatHandler(rt.svc.Chat)
	adminH := handlers.NewAdminHandler(rt.svc.Pipeline, rt.svc.Queue, rt.svc.Gateway, rt.cfg.Worker.SweepTimeout)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docH.Upload)
			r.Get("/", docH.List)
			r.Get("/{id}", docH.Get)
			r.Delete("/{id}", docH.Delete)
			r.Get("/{id}/status", docH.Status)
			r.Post("/{id}/process", docH.Process)
			r.Get("/{id}/sessions", chatH.Sessions)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatH.Send)
			r.Get("/sessions/{id}/messages", chatH.Messages)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))
			r.Post("/reprocess-stuck", adminH.ReprocessStuck)
			r.Get("/models", adminH.Models)
		})
	})

	return r
}

func (rt *Router) readinessChecks() map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if db := rt.svc.DB; db != nil {
		checks["database"] = db.Ping
	}
	if rdb := rt.svc.Redis; rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}
