// internal/app/features/newsletter/routes.go
package newsletter

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/newsletter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/subscribe", h.HandleSubscribe)
	return r
}
