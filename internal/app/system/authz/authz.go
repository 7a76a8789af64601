// Package authz provides the capability predicates evaluated before any
// domain operation executes. Every predicate is a pure set-membership test
// over the caller's role set.
package authz

import (
	"net/http"

	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's role set, Mongo ObjectID, and a found flag.
// ok=false means no authenticated user; callers must treat that as a hard
// stop before touching any store.
func UserCtx(r *http.Request) (roles models.RoleSet, userID primitive.ObjectID, ok bool) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	return p.Roles, p.UserID, true
}

// IsModerator reports whether the caller's role set contains the Moderator tag.
func IsModerator(r *http.Request) bool {
	roles, _, ok := UserCtx(r)
	return ok && roles.Has(models.RoleModerator)
}

// IsAdmin reports whether the caller's role set contains the Admin tag.
func IsAdmin(r *http.Request) bool {
	roles, _, ok := UserCtx(r)
	return ok && roles.Has(models.RoleAdmin)
}

// IsSuperAdmin reports whether the caller's role set contains the Super Admin tag.
func IsSuperAdmin(r *http.Request) bool {
	roles, _, ok := UserCtx(r)
	return ok && roles.Has(models.RoleSuperAdmin)
}

// IsAdminOrSuperAdmin is the OR of the two admin capability checks.
func IsAdminOrSuperAdmin(r *http.Request) bool {
	roles, _, ok := UserCtx(r)
	return ok && roles.HasAny(models.RoleAdmin, models.RoleSuperAdmin)
}

// IsVendor reports whether the caller's role set contains the Vendor tag.
func IsVendor(r *http.Request) bool {
	roles, _, ok := UserCtx(r)
	return ok && roles.Has(models.RoleVendor)
}

// IsVolunteer reports whether the caller's role set contains the Volunteer tag.
func IsVolunteer(r *http.Request) bool {
	roles, _, ok := UserCtx(r)
	return ok && roles.Has(models.RoleVolunteer)
}

// ModerationScope resolves which cause categories a moderator may review.
//
// Policy (union of matches, deterministic):
//   - no Moderator tag: sees nothing
//   - Shared Services tag: sees every category (all=true)
//   - otherwise: the union of the specific category tags held
//   - Moderator tag but no category tag: sees nothing
func ModerationScope(roles models.RoleSet) (categories []string, all bool) {
	if !roles.Has(models.RoleModerator) {
		return nil, false
	}
	if roles.Has(models.CategorySharedServices) {
		return nil, true
	}
	for _, c := range models.Categories {
		if roles.Has(c) {
			categories = append(categories, c)
		}
	}
	return categories, false
}

// CanModerateCategory reports whether the role set may act on a cause in the
// given category, under the same policy as ModerationScope.
func CanModerateCategory(roles models.RoleSet, category string) bool {
	cats, all := ModerationScope(roles)
	if all {
		return true
	}
	for _, c := range cats {
		if c == category {
			return true
		}
	}
	return false
}
