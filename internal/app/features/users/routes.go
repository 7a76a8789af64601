// internal/app/features/users/routes.go
package users

import (
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Get("/verify_email/{token}", h.HandleVerifyEmail)
	r.Post("/forgot_password", h.HandleForgotPassword)
	r.Put("/update_password/{token}", h.HandleUpdatePassword)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/me", h.HandleMe)
		r.Put("/me", h.HandleUpdateMe)
	})

	return r
}
