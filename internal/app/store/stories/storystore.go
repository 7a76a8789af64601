// Package storystore persists success stories. The unique index on cause_id
// caps each cause at one story; the token flow in the causes store decides
// who may write it.
package storystore

import (
	"context"
	"errors"
	"time"

	"github.com/instiq/caritas/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStoryExists is returned when a cause already has a success story.
var ErrStoryExists = errors.New("a success story already exists for this cause")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("success_stories")}
}

// Create inserts the story for a cause. The unique cause_id index turns a
// second story into ErrStoryExists.
func (s *Store) Create(ctx context.Context, causeID, createdBy primitive.ObjectID, testimonial string) (models.SuccessStory, error) {
	now := time.Now()
	st := models.SuccessStory{
		ID:          primitive.NewObjectID(),
		CauseID:     causeID,
		Testimonial: testimonial,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.SuccessStory{}, ErrStoryExists
		}
		return models.SuccessStory{}, err
	}
	return st, nil
}

// GetByCause returns the story for a cause, if any.
func (s *Store) GetByCause(ctx context.Context, causeID primitive.ObjectID) (*models.SuccessStory, error) {
	var st models.SuccessStory
	if err := s.c.FindOne(ctx, bson.M{"cause_id": causeID, "deleted_at": nil}).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// List returns all stories, oldest first.
func (s *Store) List(ctx context.Context) ([]models.SuccessStory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"deleted_at": nil}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sts []models.SuccessStory
	if err := cur.All(ctx, &sts); err != nil {
		return nil, err
	}
	return sts, nil
}
