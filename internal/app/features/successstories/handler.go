// Package successstories publishes the testimonials written for resolved
// causes. A story is created either by the cause owner directly or through
// the one-time token mailed when the cause was resolved.
package successstories

import (
	"encoding/json"
	"net/http"

	causestore "github.com/instiq/caritas/internal/app/store/causes"
	storystore "github.com/instiq/caritas/internal/app/store/stories"
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/htmlsanitize"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Stories *storystore.Store
	Causes  *causestore.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Stories: storystore.New(db),
		Causes:  causestore.New(db),
		Log:     logger,
	}
}

type createRequest struct {
	CauseID     string `json:"cause_id"`
	Testimonial string `json:"testimonial"`
}

func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request) (createRequest, bool) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return req, false
	}
	req.Testimonial = htmlsanitize.Sanitize(req.Testimonial)
	if msg := inputval.First(
		inputval.Required("Testimonial", req.Testimonial),
		inputval.MaxLen("Testimonial", req.Testimonial, 5000),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return req, false
	}
	return req, true
}

// HandleCreate lets the owner of a resolved cause publish its story without
// going through the mailed link. One story per cause.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to share a success story."))
		return
	}

	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	causeID, err := primitive.ObjectIDFromHex(req.CauseID)
	if err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid cause id."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create success story")
	defer cancel()

	cause, err := h.Causes.GetByID(ctx, causeID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("Cause not found."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	if cause.CreatedBy != p.UserID {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Only the cause owner can share its success story."))
		return
	}
	if !cause.IsResolved {
		httpapi.Fail(w, h.Log, httpapi.Validation("A success story can only be shared for a resolved cause."))
		return
	}

	story, err := h.Stories.Create(ctx, cause.ID, p.UserID, req.Testimonial)
	if err != nil {
		if err == storystore.ErrStoryExists {
			httpapi.Fail(w, h.Log, httpapi.Conflict("A success story already exists for this cause."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Success story shared. Thank you.", story)
}

// HandleCreateWithToken is the mailed-link path: the one-time token from the
// resolution mail identifies the cause and authorizes the write without a
// session. The token is consumed only after the story lands.
func (h *Handler) HandleCreateWithToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create success story by token")
	defer cancel()

	cause, err := h.Causes.FindBySuccessStoryToken(ctx, token)
	if err != nil {
		if err == causestore.ErrTokenInvalid {
			httpapi.Fail(w, h.Log, httpapi.Validation("This link is invalid or has already been used."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	story, err := h.Stories.Create(ctx, cause.ID, cause.CreatedBy, req.Testimonial)
	if err != nil {
		if err == storystore.ErrStoryExists {
			httpapi.Fail(w, h.Log, httpapi.Conflict("A success story already exists for this cause."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}

	if err := h.Causes.ConsumeSuccessStoryToken(ctx, token); err != nil {
		// The story is saved; a stale token only allows a duplicate attempt,
		// which the unique index refuses.
		h.Log.Warn("could not consume success story token",
			zap.String("cause_id", cause.ID.Hex()),
			zap.Error(err))
	}
	httpapi.OK(w, "Success story shared. Thank you.", story)
}

// HandleList returns every story, oldest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list success stories")
	defer cancel()

	stories, err := h.Stories.List(ctx)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	if stories == nil {
		stories = []models.SuccessStory{}
	}
	httpapi.OK(w, "", stories)
}
