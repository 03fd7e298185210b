package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/voice-intake/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/voice-intake/internal/http/middleware"
	"github.com/wolfman30/voice-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Sessions           *handlers.SessionHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// HostJWTSecret guards the session routes when set.
	HostJWTSecret string

	// SessionCreateRate limits POST /sessions per client IP (per second).
	SessionCreateRate  float64
	SessionCreateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.Sessions == nil {
		return r
	}
	h := cfg.Sessions
	r.Route("/sessions", func(sessions chi.Router) {
		if cfg.HostJWTSecret != "" {
			sessions.Use(httpmiddleware.HostJWT(cfg.HostJWTSecret))
		}
		sessions.Get("/ws", h.HandleStream)
		sessions.With(httpmiddleware.RateLimit(cfg.SessionCreateRate, cfg.SessionCreateBurst)).Post("/", h.CreateSession)
		sessions.Route("/{id}", func(session chi.Router) {
			session.Use(requireSessionID)
			session.Get("/", h.GetSession)
			session.Get("/language", h.GetLanguage)
			session.Get("/tools", h.GetTools)
			session.Get("/appointment.ics", h.GetAppointmentICS)
			session.Post("/actions/{action}", h.HandleAction)
			session.Post("/utterances", h.HandleUtterance)
		})
	})

	return r
}
