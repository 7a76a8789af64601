// internal/app/features/roles/routes.go
package roles

import (
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/roles.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireAdminOrSuperAdmin)
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Put("/grant/{userID}", h.HandleGrant)

	return r
}
