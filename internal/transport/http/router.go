// Package httptransport wires the HTTP surface: middleware chain, API
// routes, health probes, and the metrics endpoint.
package httptransport

import (
	"log/slog"
	"net/http"

	"caregate/internal/platform/health"
	"caregate/internal/platform/metrics"
	"caregate/internal/platform/middleware"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps carries everything the router needs. All fields except Metrics
// and Health are required.
type RouterDeps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Auth    *middleware.Authenticator
	API     *APIHandler
	Health  *health.Handler
}

// NewRouter builds the full HTTP handler. Security headers wrap everything,
// including 404/405 and panic-recovery responses.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.RequestMetrics(deps.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Not Found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"detail": "Method Not Allowed",
		})
	})

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.With(deps.Auth.Optional).Get("/hello", deps.API.handleHello)
		api.With(deps.Auth.Require).Get("/secure", deps.API.handleSecure)
		api.With(deps.Auth.Require).Get("/users/me", deps.API.handleUsersMe)
		api.With(deps.Auth.Require).Get("/audit-log", deps.API.handleAuditLog)
	})

	return r
}
