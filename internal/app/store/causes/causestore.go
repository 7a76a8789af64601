// Package causestore persists causes and their approval/resolution state
// machine. State transitions are single filtered updates: the filter encodes
// the precondition (current state) so a concurrent conflicting transition
// simply fails to match instead of racing.
package causestore

import (
	"context"
	"errors"
	"time"

	"github.com/instiq/caritas/internal/app/system/normalize"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotPending is returned when approving/disapproving a cause that has
	// already been decided.
	ErrNotPending = errors.New("cause has already been approved or disapproved")
	// ErrNotApproved is returned when resolving a cause that is not in the
	// Approved state.
	ErrNotApproved = errors.New("only an approved cause can be resolved")
	// ErrAlreadyResolved is returned when resolving a resolved cause.
	ErrAlreadyResolved = errors.New("cause has already been resolved")
	// ErrTokenInvalid is returned when a one-time token is unknown or
	// already consumed.
	ErrTokenInvalid = errors.New("invalid token")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("causes")}
}

func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

// Create inserts a new cause in the Pending state with zeroed counters.
func (s *Store) Create(ctx context.Context, c models.Cause) (models.Cause, error) {
	c.ID = primitive.NewObjectID()
	c.Category = normalize.Tag(c.Category)
	c.IsApproved = models.ApprovalPending
	c.IsResolved = false
	c.NumberOfVotes = 0
	c.AmountDonated = 0

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Cause{}, err
	}
	return c, nil
}

// GetByID loads a non-deleted cause.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Cause, error) {
	var c models.Cause
	if err := s.c.FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// list runs a filtered find sorted by creation time ascending.
func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Cause, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var causes []models.Cause
	if err := cur.All(ctx, &causes); err != nil {
		return nil, err
	}
	return causes, nil
}

// ListApproved returns every approved, non-deleted cause, oldest first.
func (s *Store) ListApproved(ctx context.Context) ([]models.Cause, error) {
	return s.list(ctx, notDeleted(bson.M{"isApproved": models.ApprovalApproved}))
}

// ListApprovedByCategory narrows ListApproved to an exact category match.
func (s *Store) ListApprovedByCategory(ctx context.Context, category string) ([]models.Cause, error) {
	return s.list(ctx, notDeleted(bson.M{
		"isApproved": models.ApprovalApproved,
		"category":   normalize.Tag(category),
	}))
}

// ListByCreator returns the caller's own causes regardless of state.
func (s *Store) ListByCreator(ctx context.Context, userID primitive.ObjectID) ([]models.Cause, error) {
	return s.list(ctx, notDeleted(bson.M{"created_by": userID}))
}

// ListPending returns the moderation queue scoped to the given categories.
// all=true (the Shared Services catch-all) returns every category; an empty
// category list with all=false returns nothing — a moderator with no
// recognized category tag has an empty queue.
func (s *Store) ListPending(ctx context.Context, categories []string, all bool) ([]models.Cause, error) {
	filter := notDeleted(bson.M{"isApproved": models.ApprovalPending})
	if !all {
		if len(categories) == 0 {
			return nil, nil
		}
		filter["category"] = bson.M{"$in": categories}
	}
	return s.list(ctx, filter)
}

// wrongState distinguishes "no such cause" from "cause exists but the
// precondition filter did not match".
func (s *Store) wrongState(ctx context.Context, id primitive.ObjectID, stateErr error) error {
	err := s.c.FindOne(ctx, notDeleted(bson.M{"_id": id})).Err()
	if err == mongo.ErrNoDocuments {
		return mongo.ErrNoDocuments
	}
	if err != nil {
		return err
	}
	return stateErr
}

// Approve moves a Pending cause to Approved and records the decision
// metadata.
func (s *Store) Approve(ctx context.Context, id primitive.ObjectID, moderatorID primitive.ObjectID) (*models.Cause, error) {
	now := time.Now()
	var c models.Cause
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{"_id": id, "isApproved": models.ApprovalPending}),
		bson.M{"$set": bson.M{
			"isApproved":                 models.ApprovalApproved,
			"approved_or_disapproved_by": moderatorID.Hex(),
			"approved_or_disapproved_at": now,
			"updated_at":                 now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, s.wrongState(ctx, id, ErrNotPending)
		}
		return nil, err
	}
	return &c, nil
}

// Disapprove moves a Pending cause to Disapproved, stores the reason, and
// mints the one-time token the creator uses to read it. The plain token is
// returned for the mail link.
func (s *Store) Disapprove(ctx context.Context, id primitive.ObjectID, moderatorID primitive.ObjectID, reason string) (*models.Cause, string, error) {
	now := time.Now()
	token := uuid.NewString()
	var c models.Cause
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{"_id": id, "isApproved": models.ApprovalPending}),
		bson.M{"$set": bson.M{
			"isApproved":                 models.ApprovalDisapproved,
			"approved_or_disapproved_by": moderatorID.Hex(),
			"approved_or_disapproved_at": now,
			"reason_for_disapproval":     reason,
			"reason_view_token": models.OneTimeToken{
				Purpose: models.TokenReasonView,
				Token:   token,
			},
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", s.wrongState(ctx, id, ErrNotPending)
		}
		return nil, "", err
	}
	return &c, token, nil
}

// ConsumeReasonToken returns the disapproval reason for a one-time view
// token and invalidates the token in the same update, so the second fetch
// fails.
func (s *Store) ConsumeReasonToken(ctx context.Context, token string) (*models.Cause, error) {
	var c models.Cause
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{"reason_view_token.token": token}),
		bson.M{"$unset": bson.M{"reason_view_token": ""}},
	).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &c, nil
}

// Resolve moves an Approved cause to Resolved and mints the one-time
// success-story token. Resolving from Pending or Disapproved is a
// state-machine precondition failure.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, moderatorID primitive.ObjectID) (*models.Cause, string, error) {
	now := time.Now()
	token := uuid.NewString()
	var c models.Cause
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{
			"_id":        id,
			"isApproved": models.ApprovalApproved,
			"isResolved": false,
		}),
		bson.M{"$set": bson.M{
			"isResolved":            true,
			"marked_as_resolved_by": moderatorID.Hex(),
			"resolved_at":           now,
			"success_story_token": models.OneTimeToken{
				Purpose: models.TokenSuccessStory,
				Token:   token,
			},
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", s.resolveFailure(ctx, id)
		}
		return nil, "", err
	}
	return &c, token, nil
}

func (s *Store) resolveFailure(ctx context.Context, id primitive.ObjectID) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsResolved {
		return ErrAlreadyResolved
	}
	return ErrNotApproved
}

// FindBySuccessStoryToken loads the cause a success-story token belongs to
// without consuming it; consumption happens only after the story is saved.
func (s *Store) FindBySuccessStoryToken(ctx context.Context, token string) (*models.Cause, error) {
	var c models.Cause
	err := s.c.FindOne(ctx, notDeleted(bson.M{"success_story_token.token": token})).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &c, nil
}

// ConsumeSuccessStoryToken invalidates a story token after first use.
func (s *Store) ConsumeSuccessStoryToken(ctx context.Context, token string) error {
	res, err := s.c.UpdateOne(ctx,
		notDeleted(bson.M{"success_story_token.token": token}),
		bson.M{"$unset": bson.M{"success_story_token": ""}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// Update holds the owner-editable fields. Counters, approval state, and
// tokens are deliberately absent: edits never reset approval and never touch
// totals.
type Update struct {
	CauseTitle               string
	BriefDescription         string
	CharityInfo              string
	AdditionalInfo           string
	AccountNumber            string
	AcceptCommentsAndReviews bool
	WatchCause               bool
	CauseFundVisibility      bool
	ShareOnSocialMedia       bool
	CausePhotos              []string
	CauseVideo               string
	AmountRequired           int64
	Category                 string
}

// Edit replaces the editable fields wholesale (last writer wins).
func (s *Store) Edit(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Cause, error) {
	set := bson.M{
		"cause_title":                 upd.CauseTitle,
		"brief_description":           upd.BriefDescription,
		"charity_information":         upd.CharityInfo,
		"additional_information":      upd.AdditionalInfo,
		"account_number":              upd.AccountNumber,
		"accept_comments_and_reviews": upd.AcceptCommentsAndReviews,
		"watch_cause":                 upd.WatchCause,
		"cause_fund_visibility":       upd.CauseFundVisibility,
		"share_on_social_media":       upd.ShareOnSocialMedia,
		"cause_photos":                upd.CausePhotos,
		"cause_video":                 upd.CauseVideo,
		"amount_required":             upd.AmountRequired,
		"category":                    normalize.Tag(upd.Category),
		"updated_at":                  time.Now(),
	}
	var c models.Cause
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{"_id": id}),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SoftDelete marks a cause deleted; it disappears from every listing.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID, deletedBy string) error {
	now := time.Now()
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"deleted_at": now,
		"deleted_by": deletedBy,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncVotes atomically bumps the vote counter. Only ever called with +1 by
// the vote flow; $inc serializes concurrent bumps at the storage layer.
func (s *Store) IncVotes(ctx context.Context, id primitive.ObjectID, delta int64) error {
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{
		"$inc": bson.M{"number_of_votes": delta},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncDonated atomically bumps the running donation total.
func (s *Store) IncDonated(ctx context.Context, id primitive.ObjectID, amount int64) error {
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{
		"$inc": bson.M{"amount_donated": amount},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
