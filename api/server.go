/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Request logging through slog
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/me/*   Caller's own record, behind Identity
  /api/stats  Global counters
  /api/admin  Dev-only reset, when EnableAdmin is set
  /healthz    Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - identity.go: Caller resolution
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the settings NewRouter needs beyond the handler.
type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      string

	// EnableAdmin mounts /api/admin. Never enable in production.
	EnableAdmin bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(h.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", AccountHeader},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	identity := NewIdentity(cfg.JWTSecret)

	r.Get("/healthz", h.Healthz)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.GetGlobalStats)

		r.Route("/me", func(r chi.Router) {
			r.Use(identity.Middleware)

			r.Post("/register", h.Register)
			r.Post("/intake", h.LogIntake)
			r.Put("/goal", h.UpdateGoal)
			r.Get("/stats", h.GetStats)
			r.Get("/history", h.GetHistory)
			r.Get("/history/recent", h.GetRecentHistory)
		})

		if cfg.EnableAdmin && h.Store != nil {
			r.Post("/admin/reset", h.ResetDatabase)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})

	return r
}
