package causes

import (
	"encoding/json"
	"net/http"

	causestore "github.com/instiq/caritas/internal/app/store/causes"
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/authz"
	"github.com/instiq/caritas/internal/app/system/htmlsanitize"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type editRequest struct {
	CauseTitle               string   `json:"cause_title"`
	BriefDescription         string   `json:"brief_description"`
	CharityInfo              string   `json:"charity_information"`
	AdditionalInfo           string   `json:"additional_information"`
	AccountNumber            string   `json:"account_number"`
	AcceptCommentsAndReviews bool     `json:"accept_comments_and_reviews"`
	WatchCause               bool     `json:"watch_cause"`
	CauseFundVisibility      bool     `json:"cause_fund_visibility"`
	ShareOnSocialMedia       bool     `json:"share_on_social_media"`
	CausePhotos              []string `json:"cause_photos"`
	CauseVideo               string   `json:"cause_video"`
	AmountRequired           int64    `json:"amount_required"`
	Category                 string   `json:"category"`
}

// canManage lets the creator, a moderator scoped to the cause's category, or
// an admin edit and delete a cause.
func (h *Handler) canManage(r *http.Request, c *models.Cause) bool {
	p, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	if p.UserID == c.CreatedBy {
		return true
	}
	if p.Roles.HasAny(models.RoleAdmin, models.RoleSuperAdmin) {
		return true
	}
	return authz.CanModerateCategory(p.Roles, c.Category)
}

// HandleEdit replaces the editable fields of a cause. Approval state,
// counters, and tokens are untouched: editing never re-queues a cause for
// moderation.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.First(
		inputval.Required("Cause title", req.CauseTitle),
		inputval.MaxLen("Cause title", req.CauseTitle, 200),
		inputval.Required("Brief description", req.BriefDescription),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}
	if !models.IsValidCategory(req.Category) {
		httpapi.Fail(w, h.Log, httpapi.Validation("Category must be one of the recognized cause categories."))
		return
	}
	if req.AmountRequired <= 0 {
		httpapi.Fail(w, h.Log, httpapi.Validation("Amount required must be a positive whole number."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "edit cause")
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
	if !h.canManage(r, cause) {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("You are not allowed to edit this cause."))
		return
	}

	updated, err := h.Causes.Edit(ctx, id, causestore.Update{
		CauseTitle:               req.CauseTitle,
		BriefDescription:         htmlsanitize.Sanitize(req.BriefDescription),
		CharityInfo:              htmlsanitize.Sanitize(req.CharityInfo),
		AdditionalInfo:           htmlsanitize.Sanitize(req.AdditionalInfo),
		AccountNumber:            req.AccountNumber,
		AcceptCommentsAndReviews: req.AcceptCommentsAndReviews,
		WatchCause:               req.WatchCause,
		CauseFundVisibility:      req.CauseFundVisibility,
		ShareOnSocialMedia:       req.ShareOnSocialMedia,
		CausePhotos:              req.CausePhotos,
		CauseVideo:               req.CauseVideo,
		AmountRequired:           req.AmountRequired,
		Category:                 req.Category,
	})
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Cause updated successfully.", updated)
}

// HandleDelete soft-deletes a cause. The record stays in storage for the
// ledger but disappears from every listing and lookup.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to delete a cause."))
		return
	}

	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete cause")
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
	if !h.canManage(r, cause) {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("You are not allowed to delete this cause."))
		return
	}

	if err := h.Causes.SoftDelete(ctx, id, p.UserID.Hex()); err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Cause deleted successfully.", []interface{}{})
}
