package causes

import (
	"context"
	"encoding/json"
	"net/http"

	votestore "github.com/instiq/caritas/internal/app/store/votes"
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/app/system/txn"
	"github.com/instiq/caritas/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// loadApproved fetches a cause and checks it is approved and unresolved.
// Engagement is only valid against a live, approved cause.
func (h *Handler) loadApproved(ctx context.Context, w http.ResponseWriter, id primitive.ObjectID) (*models.Cause, bool) {
	cause, err := h.Causes.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
			return nil, false
		}
		httpapi.Fail(w, h.Log, err)
		return nil, false
	}
	if cause.IsApproved != models.ApprovalApproved {
		httpapi.Fail(w, h.Log, httpapi.Validation("This cause is not open for support."))
		return nil, false
	}
	if cause.IsResolved {
		httpapi.Fail(w, h.Log, httpapi.Validation("This cause has already been resolved."))
		return nil, false
	}
	return cause, true
}

// HandleVote records one vote per user per cause. The vote insert, the
// counter bump, and the follower record are applied together; the unique
// vote index keeps a second vote out even without a transaction.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to vote for a cause."))
		return
	}

	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "vote for cause")
	defer cancel()

	if _, ok := h.loadApproved(ctx, w, id); !ok {
		return
	}

	err := txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		if _, err := h.Votes.Create(ctx, p.UserID, id); err != nil {
			return err
		}
		if err := h.Causes.IncVotes(ctx, id, 1); err != nil {
			return err
		}
		// Voting also enrolls the voter as a follower of the cause.
		return h.Followers.Follow(ctx, p.UserID, id)
	})
	if err != nil {
		if err == votestore.ErrAlreadyVoted {
			httpapi.Fail(w, h.Log, httpapi.Conflict("You have already voted for this cause."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	httpapi.OK(w, "Vote recorded. Thank you for supporting this cause.", []interface{}{})
}

type donateRequest struct {
	Amount int64 `json:"amount_donated"`
}

// HandleDonate appends a ledger entry and bumps the cause total. Donations
// are open to anonymous callers; a signed-in donor is recorded on the entry.
func (h *Handler) HandleDonate(w http.ResponseWriter, r *http.Request) {
	var req donateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if req.Amount <= 0 {
		httpapi.Fail(w, h.Log, httpapi.Validation("Donation amount must be a positive whole number."))
		return
	}

	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	var donorID *primitive.ObjectID
	if p, ok := auth.CurrentUser(r); ok {
		donorID = &p.UserID
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donate to cause")
	defer cancel()

	if _, ok := h.loadApproved(ctx, w, id); !ok {
		return
	}

	var donation models.Donation
	err := txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		var err error
		donation, err = h.Donations.Create(ctx, donorID, id, req.Amount)
		if err != nil {
			return err
		}
		return h.Causes.IncDonated(ctx, id, req.Amount)
	})
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}

	httpapi.OK(w, "Donation recorded. Thank you for your generosity.", donation)
}

// HandleListDonations returns the donation ledger for a cause, oldest first.
func (h *Handler) HandleListDonations(w http.ResponseWriter, r *http.Request) {
	id, apiErr := causeID(r)
	if apiErr != nil {
		httpapi.Fail(w, h.Log, apiErr)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list donations")
	defer cancel()

	if _, err := h.Causes.GetByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	donations, err := h.Donations.ListForCause(ctx, id)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	httpapi.OK(w, "", donations)
}
