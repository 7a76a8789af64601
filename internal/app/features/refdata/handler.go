// Package refdata serves the reference collections backing the client's
// dropdowns: cause categories, banks, and account types. Creation is
// admin-only; listing is public.
package refdata

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/instiq/caritas/internal/app/store/refstore"
	"github.com/instiq/caritas/internal/app/system/authz"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Refs *refstore.Store
	Log  *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Refs: refstore.New(db), Log: logger}
}

type createRequest struct {
	Name string `json:"name"`
}

// handleCreate is the shared admin-create flow: decode {name}, validate,
// insert, map the duplicate to a 400.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, label string,
	create func(ctx context.Context, name string, createdBy primitive.ObjectID) (interface{}, error)) {
	_, adminID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Fail(w, h.Log, httpapi.Forbidden("Sign in to manage reference data."))
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.First(
		inputval.Required(label, req.Name),
		inputval.MaxLen(label, req.Name, 100),
	); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create reference entry")
	defer cancel()

	created, err := create(ctx, req.Name, adminID)
	if err != nil {
		if err == refstore.ErrDuplicate {
			httpapi.Fail(w, h.Log, httpapi.Conflict(label+" already exists."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, label+" created successfully.", created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context) (interface{}, error)) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list reference entries")
	defer cancel()

	entries, err := list(ctx)
	if err != nil {
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "", entries)
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	h.handleCreate(w, r, "Category", func(ctx context.Context, name string, by primitive.ObjectID) (interface{}, error) {
		return h.Refs.CreateCategory(ctx, name, by)
	})
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, func(ctx context.Context) (interface{}, error) {
		return h.Refs.ListCategories(ctx)
	})
}

func (h *Handler) HandleCreateBank(w http.ResponseWriter, r *http.Request) {
	h.handleCreate(w, r, "Bank", func(ctx context.Context, name string, by primitive.ObjectID) (interface{}, error) {
		return h.Refs.CreateBank(ctx, name, by)
	})
}

func (h *Handler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, func(ctx context.Context) (interface{}, error) {
		return h.Refs.ListBanks(ctx)
	})
}

func (h *Handler) HandleCreateAccountType(w http.ResponseWriter, r *http.Request) {
	h.handleCreate(w, r, "Account type", func(ctx context.Context, name string, by primitive.ObjectID) (interface{}, error) {
		return h.Refs.CreateAccountType(ctx, name, by)
	})
}

func (h *Handler) HandleListAccountTypes(w http.ResponseWriter, r *http.Request) {
	h.handleList(w, r, func(ctx context.Context) (interface{}, error) {
		return h.Refs.ListAccountTypes(ctx)
	})
}
