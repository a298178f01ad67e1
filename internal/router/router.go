package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"gp-captain-panel/internal/handler"
	"gp-captain-panel/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	ConfigHandler    *handler.ConfigHandler
	AccountsHandler  *handler.AccountsHandler
	HeartbeatHandler *handler.HeartbeatHandler
	Logger           zerolog.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	// The panel UI and the userscript run on foreign origins; the
	// endpoints carry no credentials of their own, so CORS is wide open.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/status", cfg.Handler.Status)
		}

		// Panel endpoints. Wire shapes are fixed by the dashboard UI and
		// the userscript, so they live outside the /api/v1 envelope.
		if cfg.ConfigHandler != nil {
			r.Get("/get-config", cfg.ConfigHandler.GetConfig)
			r.Post("/save-config", cfg.ConfigHandler.SaveConfig)
		}
		if cfg.AccountsHandler != nil {
			r.Get("/list-accounts", cfg.AccountsHandler.ListAccounts)
		}
		if cfg.HeartbeatHandler != nil {
			r.Post("/heartbeat", cfg.HeartbeatHandler.Heartbeat)
		}

		if cfg.Handler != nil {
			r.Route("/v1", func(r chi.Router) {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			})
		}
	})

	// Static files (dashboard build output)
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	return r
}
