// internal/app/features/causes/routes.go
package causes

import (
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/causes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public surface. Donations stay open to anonymous donors.
	r.Get("/approved_causes", h.HandleListApproved)
	r.Get("/category/{name}", h.HandleListByCategory)
	r.Get("/disapproval_reason/{token}", h.HandleDisapprovalReason)
	r.Get("/donations/{id}", h.HandleListDonations)
	r.Put("/donate/{id}", h.HandleDonate)
	r.Get("/{id}", h.HandleGet)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/create", h.HandleCreate)
		r.Get("/my_causes", h.HandleListMine)
		r.Put("/vote/{id}", h.HandleVote)
		r.Put("/edit/{id}", h.HandleEdit)
		r.Delete("/delete/{id}", h.HandleDelete)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireModerator)
		r.Get("/pending", h.HandleListPending)
		r.Put("/approve/{id}", h.HandleApprove)
		r.Put("/disapprove/{id}", h.HandleDisapprove)
		r.Put("/resolve/{id}", h.HandleResolve)
	})

	return r
}
