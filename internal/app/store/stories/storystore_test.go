package storystore_test

import (
	"testing"

	storystore "github.com/instiq/caritas/internal/app/store/stories"
	"github.com/instiq/caritas/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setup(t *testing.T) *storystore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, err := db.Collection("success_stories").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cause_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create story index: %v", err)
	}
	return storystore.New(db)
}

func TestStore_Create(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cause := primitive.NewObjectID()
	author := primitive.NewObjectID()

	st, err := store.Create(ctx, cause, author, "The borehole is running and serves 400 families.")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if st.CauseID != cause || st.CreatedBy != author {
		t.Errorf("story record wrong: %+v", st)
	}

	got, err := store.GetByCause(ctx, cause)
	if err != nil {
		t.Fatalf("GetByCause failed: %v", err)
	}
	if got.Testimonial != st.Testimonial {
		t.Errorf("testimonial: got %q", got.Testimonial)
	}
}

func TestStore_Create_OnePerCause(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cause := primitive.NewObjectID()
	if _, err := store.Create(ctx, cause, primitive.NewObjectID(), "first"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, cause, primitive.NewObjectID(), "second"); err != storystore.ErrStoryExists {
		t.Errorf("expected ErrStoryExists, got %v", err)
	}
}

func TestStore_List_OldestFirst(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, text := range []string{"oldest", "middle", "newest"} {
		if _, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), text); err != nil {
			t.Fatalf("Create %q failed: %v", text, err)
		}
	}

	stories, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stories) != 3 {
		t.Fatalf("got %d stories, want 3", len(stories))
	}
	if stories[0].Testimonial != "oldest" {
		t.Errorf("expected oldest first, got %q", stories[0].Testimonial)
	}
}
