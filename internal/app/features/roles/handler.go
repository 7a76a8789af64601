// Package roles implements role-tag administration: creating role tags and
// granting them to users. Both operations are restricted to admins.
package roles

import (
	"encoding/json"
	"net/http"

	"github.com/instiq/caritas/internal/app/store/refstore"
	userstore "github.com/instiq/caritas/internal/app/store/users"
	"github.com/instiq/caritas/internal/app/system/authz"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Refs  *refstore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Refs:  refstore.New(db),
		Users: userstore.New(db),
		Log:   logger,
	}
}

type createRequest struct {
	Role string `json:"role"`
}

// HandleCreate registers a new role tag in the reference collection.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, adminID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to manage roles."))
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.First(
		inputval.Required("Role", req.Role),
		inputval.MaxLen("Role", req.Role, 50),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create role")
	defer cancel()

	role, err := h.Refs.CreateRole(ctx, req.Role, adminID)
	if err != nil {
		if err == refstore.ErrDuplicate {
			httpapi.Fail(w, h.Log, httpapi.Conflict("This role already exists."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Role created successfully.", role)
}

// HandleList returns every role tag, alphabetically.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list roles")
	defer cancel()

	roles, err := h.Refs.ListRoles(ctx)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", roles)
}

type grantRequest struct {
	Roles []string `json:"roles"`
}

// HandleGrant adds role tags to a user's role set. Tags already held are not
// duplicated; granting a category tag alongside Moderator is how a moderator
// is scoped to that category.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid user id."))
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if len(req.Roles) == 0 {
		httpapi.Fail(w, h.Log, httpapi.Validation("Provide at least one role to grant."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "grant roles")
	defer cancel()

	user, err := h.Users.GrantRoles(ctx, userID, req.Roles)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpapi.Fail(w, h.Log, httpapi.NotFound("User not found."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Roles granted successfully.", user)
}
