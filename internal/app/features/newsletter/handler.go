// Package newsletter implements the public mailing-list signup.
package newsletter

import (
	"encoding/json"
	"net/http"

	newsletterstore "github.com/instiq/caritas/internal/app/store/newsletter"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/inputval"
	"github.com/instiq/caritas/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Subscriptions *newsletterstore.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Subscriptions: newsletterstore.New(db), Log: logger}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// HandleSubscribe adds an e-mail to the roster. A second subscribe with the
// same address is refused.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.Fail(w, h.Log, httpapi.Validation("Invalid request body."))
		return
	}
	if msg := inputval.Email(req.Email); msg != "" {
		httpapi.Fail(w, h.Log, httpapi.Validation(msg))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "newsletter subscribe")
	defer cancel()

	sub, err := h.Subscriptions.Subscribe(ctx, req.Email)
	if err != nil {
		if err == newsletterstore.ErrAlreadySubscribed {
			httpapi.Fail(w, h.Log, httpapi.Conflict("This email is already subscribed."))
			return
		}
		httpapi.Fail(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Subscribed to the newsletter.", sub)
}
