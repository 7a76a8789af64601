// internal/app/features/refdata/routes.go
package refdata

import (
	"net/http"

	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// routesFor builds the shared list-public / create-admin shape.
func routesFor(list, create http.HandlerFunc) chi.Router {
	r := chi.NewRouter()
	r.Get("/", list)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdminOrSuperAdmin)
		r.Post("/", create)
	})
	return r
}

// CategoryRoutes returns the subrouter mounted under /api/categories.
func CategoryRoutes(h *Handler) chi.Router {
	return routesFor(h.HandleListCategories, h.HandleCreateCategory)
}

// BankRoutes returns the subrouter mounted under /api/banks.
func BankRoutes(h *Handler) chi.Router {
	return routesFor(h.HandleListBanks, h.HandleCreateBank)
}

// AccountTypeRoutes returns the subrouter mounted under /api/account_types.
func AccountTypeRoutes(h *Handler) chi.Router {
	return routesFor(h.HandleListAccountTypes, h.HandleCreateAccountType)
}
