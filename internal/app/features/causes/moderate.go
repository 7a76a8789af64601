package causes

import (
	"context"
	"encoding/json"
	"net/http"

	causestore "github.com/instiq/caritas/internal/app/store/causes"
	"github.com/instiq/caritas/internal/app/system/authz"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleListPending returns the moderation queue scoped to the caller's
// category tags. Shared Services sees everything; a moderator with no
// category tag sees an empty queue.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	roles, _, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to view the moderation queue."))
		return
	}

	categories, all := authz.ModerationScope(roles)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list pending causes")
	defer cancel()

	causes, err := h.Causes.ListPending(ctx, categories, all)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", emptyToSlice(causes))
}

// loadForModeration fetches the cause and checks the caller's category scope
// against it. Out-of-scope moderation attempts are denied, not 404ed: the
// cause exists, the caller just cannot act on it.
func (h *Handler) loadForModeration(w http.ResponseWriter, r *http.Request) (*models.Cause, primitive.ObjectID, bool) {
	roles, moderatorID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to moderate causes."))
		return nil, primitive.NilObjectID, false
	}

	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return nil, primitive.NilObjectID, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load cause for moderation")
	defer cancel()

	cause, err := h.Causes.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
			return nil, primitive.NilObjectID, false
		}
		httpapi.Fail(w, h.Log, err)
		return nil, primitive.NilObjectID, false
	}

	if !authz.CanModerateCategory(roles, cause.Category) {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("You are not a moderator for this cause category."))
		return nil, primitive.NilObjectID, false
	}
	return cause, moderatorID, true
}

// HandleApprove moves a pending cause to Approved and notifies its creator.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	cause, moderatorID, ok := h.loadForModeration(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "approve cause")
	defer cancel()

	approved, err := h.Causes.Approve(ctx, cause.ID, moderatorID)
	if err != nil {
		if err == causestore.ErrNotPending {
			httpapi.Fail(w, h.Log, httpapi.Validation("This cause has already been moderated."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.publishWithCreator(ctx, approved, func(creator models.User) events.Event {
		return events.CauseApproved{Cause: *approved, Creator: creator}
	})
	httpapi.OK(w, "Cause approved successfully.", approved)
}

type disapproveRequest struct {
	Reason string `json:"reason"`
}

// HandleDisapprove moves a pending cause to Disapproved. The reason is
// mandatory; it is stored on the cause and exposed to the creator only
// through the one-time view link mailed to them.
func (h *Handler) HandleDisapprove(w http.ResponseWriter, r *http.Request) {
	var req disapproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.First(
		inputval.Required("Reason", req.Reason),
		inputval.MaxLen("Reason", req.Reason, 2000),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	cause, moderatorID, ok := h.loadForModeration(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "disapprove cause")
	defer cancel()

	disapproved, reasonToken, err := h.Causes.Disapprove(ctx, cause.ID, moderatorID, req.Reason)
	if err != nil {
		if err == causestore.ErrNotPending {
			httpapi.Fail(w, h.Log, httpapi.Validation("This cause has already been moderated."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	h.publishWithCreator(ctx, disapproved, func(creator models.User) events.Event {
		return events.CauseDisapproved{Cause: *disapproved, Creator: creator, PlainReasonToken: reasonToken}
	})
	httpapi.OK(w, "Cause disapproved. The creator has been notified.", disapproved)
}

// HandleDisapprovalReason consumes the one-time reason-view token from the
// disapproval mail. The second visit to the same link fails.
func (h *Handler) HandleDisapprovalReason(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view disapproval reason")
	defer cancel()

	cause, err := h.Causes.ConsumeReasonToken(ctx, token)
	if err != nil {
		if err == causestore.ErrTokenInvalid {
			httpapi.Fail(w, h.Log, httpapi.Validation("This link is invalid or has already been used."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	httpapi.OK(w, "", map[string]string{
		"cause_title": cause.CauseTitle,
		"reason":      cause.ReasonForDisapproval,
	})
}

// HandleResolve marks an approved cause as resolved and mails the creator
// their one-time success-story link.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	cause, moderatorID, ok := h.loadForModeration(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resolve cause")
	defer cancel()

	resolved, storyToken, err := h.Causes.Resolve(ctx, cause.ID, moderatorID)
	if err != nil {
		switch err {
		case causestore.ErrAlreadyResolved:
			httpapi.Fail(w, h.Log, httpapi.Validation("This cause has already been resolved."))
		case causestore.ErrNotApproved:
			httpapi.Fail(w, h.Log, httpapi.Validation("Only an approved cause can be resolved."))
		default:
			httpapi.Fail(w, h.Log, err)
		}
		return
	}

	h.publishWithCreator(ctx, resolved, func(creator models.User) events.Event {
		return events.CauseResolved{Cause: *resolved, Creator: creator, PlainStoryToken: storyToken}
	})
	httpapi.OK(w, "Cause marked as resolved. The creator has been notified.", resolved)
}

// publishWithCreator loads the cause creator and publishes the event built
// from them. The state transition has already committed, so a failed creator
// lookup only costs the notification.
func (h *Handler) publishWithCreator(ctx context.Context, cause *models.Cause, build func(models.User) events.Event) {
	creator, err := h.Users.GetByID(ctx, cause.CreatedBy)
	if err != nil {
		h.Log.Error("could not load cause creator for notification",
			zap.String("cause_id", cause.ID.Hex()),
			zap.Error(err))
		return
	}
	h.Bus.Publish(build(*creator))
}
