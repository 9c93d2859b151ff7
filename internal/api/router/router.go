package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/knitec/iq-platform/internal/auth"
	"github.com/knitec/iq-platform/internal/chat"
	httpmiddleware "github.com/knitec/iq-platform/internal/http/middleware"
	"github.com/knitec/iq-platform/internal/intake"
	"github.com/knitec/iq-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	AuthHandler     *auth.Handler
	SessionVerifier httpmiddleware.SessionVerifier
	IntakeHandler   *intake.Handler
	ChatHandler     *chat.Handler
	MetricsHandler  http.Handler
	StaticHandler   http.Handler

	CORSAllowedOrigins []string

	// Requests per second per client ip on login and intake submissions,
	// with burst headroom. Each endpoint gets its own bucket.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health, metrics, login, static site)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			if cfg.RateLimitPerSecond > 0 {
				public.With(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)).
					Post("/auth/login", cfg.AuthHandler.Login)
			} else {
				public.Post("/auth/login", cfg.AuthHandler.Login)
			}
		}
		if cfg.StaticHandler != nil {
			public.Handle("/*", cfg.StaticHandler)
		}
	})

	// Session-protected endpoints
	if cfg.SessionVerifier != nil {
		r.Group(func(private chi.Router) {
			private.Use(httpmiddleware.SessionAuth(cfg.SessionVerifier))

			if cfg.AuthHandler != nil {
				private.Get("/auth/me", cfg.AuthHandler.Me)
				private.Post("/auth/logout", cfg.AuthHandler.Logout)
			}

			if cfg.IntakeHandler != nil {
				private.Route("/intake", func(r chi.Router) {
					if cfg.RateLimitPerSecond > 0 {
						r.With(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)).
							Post("/", cfg.IntakeHandler.Submit)
					} else {
						r.Post("/", cfg.IntakeHandler.Submit)
					}
					r.Get("/latest", cfg.IntakeHandler.Latest)
				})
			}

			if cfg.ChatHandler != nil {
				private.Route("/chat", func(r chi.Router) {
					r.Post("/sessions", cfg.ChatHandler.StartSession)
					r.Get("/sessions", cfg.ChatHandler.ListSessions)
					r.Post("/message", cfg.ChatHandler.Message)
					r.Get("/history", cfg.ChatHandler.History)
					r.Get("/ws", cfg.ChatHandler.WebSocket)
				})
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
