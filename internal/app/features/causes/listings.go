package causes

import (
	"net/http"

	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleListApproved returns every approved cause, oldest first. Public.
func (h *Handler) HandleListApproved(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list approved causes")
	defer cancel()

	causes, err := h.Causes.ListApproved(ctx)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", emptyToSlice(causes))
}

// HandleListByCategory narrows the approved listing to one category. An
// unrecognized category name is a validation failure, not an empty list.
func (h *Handler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "name")
	if !models.IsValidCategory(category) {
		httpapi.Fail(w, h.Log, httpapi.Validation("Unknown cause category."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list causes by category")
	defer cancel()

	causes, err := h.Causes.ListApprovedByCategory(ctx, category)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", emptyToSlice(causes))
}

// HandleListMine returns the caller's own causes in every state, so creators
// can see their pending and disapproved submissions.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to view your causes."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list own causes")
	defer cancel()

	causes, err := h.Causes.ListByCreator(ctx, p.UserID)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", emptyToSlice(causes))
}

// HandleGet returns a single cause by id. Public for approved causes; a
// pending or disapproved cause is visible only to its creator and moderators.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get cause")
	defer cancel()

	cause, err := h.Causes.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	if cause.IsApproved != models.ApprovalApproved && !h.canSeeUnapproved(r, cause) {
		httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
		return
	}
	httpapi.OK(w, "", cause)
}

// canSeeUnapproved lets the creator and any moderator/admin look at a cause
// that has not been approved yet.
func (h *Handler) canSeeUnapproved(r *http.Request, c *models.Cause) bool {
	p, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	if p.UserID == c.CreatedBy {
		return true
	}
	return p.Roles.HasAny(models.RoleModerator, models.RoleAdmin, models.RoleSuperAdmin)
}

// emptyToSlice keeps listing responses as [] instead of null.
func emptyToSlice(causes []models.Cause) []models.Cause {
	if causes == nil {
		return []models.Cause{}
	}
	return causes
}
