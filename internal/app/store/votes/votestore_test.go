package votestore_test

import (
	"testing"

	votestore "github.com/instiq/caritas/internal/app/store/votes"
	"github.com/instiq/caritas/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setup(t *testing.T) (*votestore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := db.Collection("votes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "voter_id", Value: 1}, {Key: "cause_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create vote index: %v", err)
	}
	return votestore.New(db), db
}

func TestStore_Create(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	voter := primitive.NewObjectID()
	cause := primitive.NewObjectID()

	v, err := store.Create(ctx, voter, cause)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.VoterID != voter || v.CauseID != cause {
		t.Errorf("vote record wrong: %+v", v)
	}
	if v.VotedAt.IsZero() {
		t.Error("expected VotedAt to be set")
	}
}

func TestStore_Create_DuplicateVote(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	voter := primitive.NewObjectID()
	cause := primitive.NewObjectID()

	if _, err := store.Create(ctx, voter, cause); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if _, err := store.Create(ctx, voter, cause); err != votestore.ErrAlreadyVoted {
		t.Errorf("expected ErrAlreadyVoted, got %v", err)
	}

	// Same voter, different cause is fine; different voter, same cause too.
	if _, err := store.Create(ctx, voter, primitive.NewObjectID()); err != nil {
		t.Errorf("vote on another cause failed: %v", err)
	}
	if _, err := store.Create(ctx, primitive.NewObjectID(), cause); err != nil {
		t.Errorf("another voter on same cause failed: %v", err)
	}
}

func TestStore_CountForCause(t *testing.T) {
	store, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cause := primitive.NewObjectID()
	for i := 0; i < 4; i++ {
		if _, err := store.Create(ctx, primitive.NewObjectID(), cause); err != nil {
			t.Fatalf("vote %d failed: %v", i, err)
		}
	}

	n, err := store.CountForCause(ctx, cause)
	if err != nil {
		t.Fatalf("CountForCause failed: %v", err)
	}
	if n != 4 {
		t.Errorf("count: got %d, want 4", n)
	}
}
