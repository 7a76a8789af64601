package auth

import (
	"encoding/json"
	"net/http"

	"github.com/instiq/caritas/internal/domain/models"
)

// envelope mirrors httpapi.Envelope without importing it (auth sits below
// httpapi in the package graph).
type envelope struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Data    []interface{} `json:"data"`
}

func deny(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Status: status, Message: message, Data: []interface{}{}})
}

// RequireSignedIn rejects requests without an authenticated principal.
// Role checks run before any domain operation; failure short-circuits with
// no side effects.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			deny(w, http.StatusUnauthorized, "Access denied", "Access denied. No token provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers whose role set contains none of the allowed
// tags. Membership is a set test, never string equality on a single role.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentUser(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "Access denied", "Access denied. No token provided.")
				return
			}
			if !p.Roles.HasAny(allowed...) {
				deny(w, http.StatusForbidden, "Forbidden", "Access denied.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModerator is the gate in front of the moderation endpoints.
func RequireModerator(next http.Handler) http.Handler {
	return RequireRole(models.RoleModerator)(next)
}

// RequireAdminOrSuperAdmin gates the role-management and reference-data
// endpoints.
func RequireAdminOrSuperAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin, models.RoleSuperAdmin)(next)
}
