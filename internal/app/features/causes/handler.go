// Package causes implements the cause lifecycle: creation with media,
// listings, the category-scoped moderation workflow, voting, and donations.
package causes

import (
	"net/http"

	causestore "github.com/instiq/caritas/internal/app/store/causes"
	donationstore "github.com/instiq/caritas/internal/app/store/donations"
	followerstore "github.com/instiq/caritas/internal/app/store/followers"
	userstore "github.com/instiq/caritas/internal/app/store/users"
	votestore "github.com/instiq/caritas/internal/app/store/votes"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/httpapi"
	"github.com/instiq/caritas/internal/app/system/media"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the cause endpoints. Client is the
// underlying Mongo client, needed to open transactions for the multi-write
// engagement operations.
type Handler struct {
	Client    *mongo.Client
	Causes    *causestore.Store
	Users     *userstore.Store
	Votes     *votestore.Store
	Donations *donationstore.Store
	Followers *followerstore.Store
	Media     media.Store
	Bus       *events.Bus
	Log       *zap.Logger
}

// NewHandler constructs a causes Handler over the given database.
func NewHandler(client *mongo.Client, db *mongo.Database, mediaStore media.Store, bus *events.Bus, logger *zap.Logger) *Handler {
	return &Handler{
		Client:    client,
		Causes:    causestore.New(db),
		Users:     userstore.New(db),
		Votes:     votestore.New(db),
		Donations: donationstore.New(db),
		Followers: followerstore.New(db),
		Media:     mediaStore,
		Bus:       bus,
		Log:       logger,
	}
}

// causeID parses the {id} URL parameter. A malformed id is a validation
// failure, not a 404.
func causeID(r *http.Request) (primitive.ObjectID, *httpapi.Error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, httpapi.Validation("Invalid cause id.")
	}
	return id, nil
}
