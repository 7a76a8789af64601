// Package donationstore is the append-only donation ledger. Records are
// never updated or deleted; the cause document's amount_donated counter is
// the denormalized running total.
package donationstore

import (
	"context"
	"time"

	"github.com/instiq/caritas/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donations")}
}

// Create appends one ledger entry. donorID is nil for anonymous donations.
func (s *Store) Create(ctx context.Context, donorID *primitive.ObjectID, causeID primitive.ObjectID, amount int64) (models.Donation, error) {
	d := models.Donation{
		ID:        primitive.NewObjectID(),
		DonorID:   donorID,
		CauseID:   causeID,
		Amount:    amount,
		DonatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

// ListForCause returns the ledger entries for a cause, oldest first.
func (s *Store) ListForCause(ctx context.Context, causeID primitive.ObjectID) ([]models.Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "donated_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"cause_id": causeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ds []models.Donation
	if err := cur.All(ctx, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// TotalForCause sums the ledger for a cause. Ground truth for the cause
// document's denormalized amount_donated.
func (s *Store) TotalForCause(ctx context.Context, causeID primitive.ObjectID) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"cause_id": causeID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount_donated"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Total, nil
}
