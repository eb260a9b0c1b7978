package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/token-check-api/internal/application/checker"
	"github.com/token-check-api/internal/config"
	"github.com/token-check-api/internal/metrics"
	"github.com/token-check-api/internal/transport/http/handler"
	appmiddleware "github.com/token-check-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — the check endpoints run a paced
	// upstream pipeline, so inbound abuse is cut off early.
	checkRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	svcDeps := checker.ServiceDeps{
		Verifier:      deps.Verifier,
		Store:         deps.TokenRepo,
		Audit:         deps.Audit,
		Archive:       deps.Archive,
		MaxBulkTokens: cfg.MaxBulkTokens,
		CheckDelay:    cfg.BulkCheckDelay,
	}
	if deps.Metrics != nil {
		svcDeps.Metrics = deps.Metrics
	}
	svc := checker.NewService(svcDeps)

	healthH := handler.NewHealthHandler()
	tokenH := handler.NewTokenHandler(svc)
	recordH := handler.NewRecordHandler(svc)

	r.Route("/v1", func(r chi.Router) {
		r.Use(appmiddleware.AuditRequests(deps.Audit))

		r.Get("/health-check/{action}", healthH.Ping)

		r.With(checkRL.Limit).Post("/check-token", tokenH.CheckOne)
		r.With(checkRL.Limit).Post("/check-tokens", tokenH.CheckMany)

		// Saved records are the sensitive surface; locked down when JWT
		// keys are configured.
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/saved-tokens", recordH.List)
			r.Get("/saved-tokens/{userID}", recordH.ListByUser)
		})
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

	return r
}
