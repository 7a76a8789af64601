// Package followerstore tracks watch relationships, created as a side effect
// of voting. Following is idempotent: re-following is a no-op, not an error.
package followerstore

import (
	"context"
	"time"

	"github.com/instiq/caritas/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cause_followers")}
}

// Follow records that a user watches a cause. Already-following is absorbed.
func (s *Store) Follow(ctx context.Context, userID, causeID primitive.ObjectID) error {
	f := models.CauseFollower{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		CauseID:    causeID,
		FollowedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return nil
		}
		return err
	}
	return nil
}

// ListForCause returns who watches a cause.
func (s *Store) ListForCause(ctx context.Context, causeID primitive.ObjectID) ([]models.CauseFollower, error) {
	cur, err := s.c.Find(ctx, bson.M{"cause_id": causeID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var fs []models.CauseFollower
	if err := cur.All(ctx, &fs); err != nil {
		return nil, err
	}
	return fs, nil
}
