// Package votestore records (voter, cause) pairs. Uniqueness is enforced by
// a compound index, not a read-then-write check, so two concurrent votes by
// the same voter cannot both land.
package votestore

import (
	"context"
	"errors"
	"time"

	"github.com/instiq/caritas/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAlreadyVoted is returned on a second vote by the same voter for the
// same cause.
var ErrAlreadyVoted = errors.New("you have already voted for this cause")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("votes")}
}

// Create appends a vote. The unique (voter_id, cause_id) index turns a
// duplicate into ErrAlreadyVoted.
func (s *Store) Create(ctx context.Context, voterID, causeID primitive.ObjectID) (models.Vote, error) {
	v := models.Vote{
		ID:      primitive.NewObjectID(),
		VoterID: voterID,
		CauseID: causeID,
		VotedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Vote{}, ErrAlreadyVoted
		}
		return models.Vote{}, err
	}
	return v, nil
}

// CountForCause returns the number of vote records for a cause. The cause
// document's counter is the serving copy; this is the ground truth used by
// tests and reconciliation.
func (s *Store) CountForCause(ctx context.Context, causeID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"cause_id": causeID})
}
