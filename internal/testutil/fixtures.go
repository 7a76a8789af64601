package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/instiq/caritas/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a verified test user with the given role tags. The
// password for every fixture user is "password123".
func (f *Fixtures) CreateUser(ctx context.Context, firstName, lastName, email string, roles ...string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:              primitive.NewObjectID(),
		FirstName:       firstName,
		LastName:        lastName,
		FullNameCI:      text.Fold(firstName + " " + lastName),
		Email:           email,
		Password:        string(hash),
		Roles:           models.RoleSet(append([]string{models.RoleUser}, roles...)),
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateModerator creates a moderator scoped to the given categories.
func (f *Fixtures) CreateModerator(ctx context.Context, email string, categories ...string) models.User {
	f.t.Helper()
	tags := append([]string{models.RoleModerator}, categories...)
	return f.CreateUser(ctx, "Mod", "Erator", email, tags...)
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Ad", "Min", email, models.RoleAdmin)
}

// CreateCause inserts a cause in the given approval state.
func (f *Fixtures) CreateCause(ctx context.Context, creator models.User, title, category string, approval int) models.Cause {
	f.t.Helper()

	now := time.Now().UTC()
	cause := models.Cause{
		ID:               primitive.NewObjectID(),
		CauseTitle:       title,
		BriefDescription: "Test cause description",
		Category:         category,
		AmountRequired:   500_000,
		IsApproved:       approval,
		CreatedBy:        creator.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("causes").InsertOne(ctx, cause); err != nil {
		f.t.Fatalf("failed to create test cause: %v", err)
	}
	return cause
}

// CreateApprovedCause inserts a cause already in the Approved state.
func (f *Fixtures) CreateApprovedCause(ctx context.Context, creator models.User, title, category string) models.Cause {
	f.t.Helper()
	return f.CreateCause(ctx, creator, title, category, models.ApprovalApproved)
}

// CreatePendingCause inserts a cause awaiting moderation.
func (f *Fixtures) CreatePendingCause(ctx context.Context, creator models.User, title, category string) models.Cause {
	f.t.Helper()
	return f.CreateCause(ctx, creator, title, category, models.ApprovalPending)
}
