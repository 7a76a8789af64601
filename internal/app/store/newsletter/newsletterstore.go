// Package newsletterstore keeps the mailing-list roster.
package newsletterstore

import (
	"context"
	"errors"
	"time"

	"github.com/instiq/caritas/internal/app/system/normalize"
	"github.com/instiq/caritas/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAlreadySubscribed is returned on a duplicate subscription. The public
// subscribe endpoint surfaces it; the registration side effect absorbs it.
var ErrAlreadySubscribed = errors.New("email is already subscribed")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("newsletter_subscriptions")}
}

// Subscribe adds an e-mail to the roster. The unique email index turns a
// duplicate into ErrAlreadySubscribed.
func (s *Store) Subscribe(ctx context.Context, email string) (models.NewsletterSubscription, error) {
	sub := models.NewsletterSubscription{
		ID:        primitive.NewObjectID(),
		Email:     normalize.Email(email),
		CreatedAt: time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		if wafflemongo.IsDup(err) {
			return models.NewsletterSubscription{}, ErrAlreadySubscribed
		}
		return models.NewsletterSubscription{}, err
	}
	return sub, nil
}

// IsSubscribed reports whether an e-mail is on the roster.
func (s *Store) IsSubscribed(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
