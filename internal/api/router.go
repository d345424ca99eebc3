package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/licensegate/internal/api/middleware"
	"github.com/kiranshivaraju/licensegate/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	LivenessHandler http.HandlerFunc
	HealthHandler   http.HandlerFunc
	ValidateHandler http.HandlerFunc

	CreateLicense    http.HandlerFunc
	ListLicenses     http.HandlerFunc
	DeleteLicense    http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware; CORS runs first so preflights never reach routing.
	r.Use(mw.CORS)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Method not allowed", nil)
	})

	// Public
	r.Get("/", orNotImplemented(deps.LivenessHandler))
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}
		r.Post("/api/v1/license/validate", orNotImplemented(deps.ValidateHandler))
	})

	// Admin provisioning
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/admin/licenses", orNotImplemented(deps.CreateLicense))
		r.Get("/api/v1/admin/licenses", orNotImplemented(deps.ListLicenses))
		r.Delete("/api/v1/admin/licenses/{key}", orNotImplemented(deps.DeleteLicense))

		r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
		r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
		r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
