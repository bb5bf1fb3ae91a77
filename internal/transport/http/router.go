package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caregate/internal/platform/middleware"
)

// NewRouter wires all endpoints. Everything except health and metrics sits
// behind the identity assertion: the core only ever acts for an
// already-authenticated user.
func NewRouter(h *Handler, validator middleware.IdentityValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(h.timeout))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireIdentity(validator, h.logger))

		r.Post("/access/check", h.handleCheck)

		r.Post("/consent/grant", h.handleGrantConsent)
		r.Post("/consent/revoke", h.handleRevokeConsent)
		r.Get("/consent/{subjectID}", h.handleConsentHistory)

		r.Get("/audit", h.handleListAudit)
		r.Get("/audit/security", h.handleListSecurity)

		r.Post("/lifecycle/anonymize", h.handleAnonymize)
		r.Post("/lifecycle/erase", h.handleErase)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
