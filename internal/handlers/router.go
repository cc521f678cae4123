package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"phrasebot/internal/security"
)

// RouterConfig wires the HTTP API
type RouterConfig struct {
	API         *APIHandler
	Admin       *AdminHandler
	AdminAuth   *security.AdminAuth
	Startup     *StartupStatus
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the status and admin API
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(cfg.Logger), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/", cfg.API.Overview)
	r.Get("/topics", cfg.API.Topics)
	r.Get("/topics/{n}/sentences", cfg.API.TopicSentences)
	r.Get("/stats", cfg.API.Stats)
	r.Get("/stats/users/{id}", cfg.API.UserStats)
	r.Method(http.MethodGet, "/status", cfg.Startup)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/admin", func(ar chi.Router) {
		ar.Post("/token", cfg.Admin.IssueToken)
		ar.With(RequireAdmin(cfg.AdminAuth, cfg.Logger)).Post("/reload", cfg.Admin.Reload)
	})

	return r
}
