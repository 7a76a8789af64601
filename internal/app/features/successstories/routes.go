// internal/app/features/successstories/routes.go
package successstories

import (
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/success_stories.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleList)
	r.Post("/create/{token}", h.HandleCreateWithToken)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/create", h.HandleCreate)
	})

	return r
}
