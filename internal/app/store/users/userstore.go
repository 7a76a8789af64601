package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/instiq/caritas/internal/app/system/normalize"
	"github.com/instiq/caritas/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost matches the cost the rest of the product has always used.
const BcryptCost = 10

var (
	// ErrDuplicateEmail is returned when the email already belongs to a user.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrInvalidCredentials is returned for a bad email/password pair. The
	// caller must not distinguish which half was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenInvalid is returned when a one-time token is unknown, expired,
	// or already consumed.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// notDeleted scopes every lookup; users are soft-deleted only.
func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, notDeleted(bson.M{"email": normalize.Email(email)})).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user: normalized names, hashed password, the User
// role tag, unverified e-mail, and a 24h-scoped verification token. The
// plain verification token is returned for the mail link.
func (s *Store) Create(ctx context.Context, u models.User, plainPassword string, verifyExpiry time.Duration) (models.User, string, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.FullNameCI = text.Fold(u.FirstName + " " + u.LastName)
	u.Email = normalize.Email(u.Email)
	u.Roles = u.Roles.Add(models.RoleUser)
	u.IsEmailVerified = false

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), BcryptCost)
	if err != nil {
		return models.User{}, "", err
	}
	u.Password = string(hash)

	token := uuid.NewString()
	u.VerifyToken = &models.OneTimeToken{
		Purpose:   models.TokenEmailVerify,
		Token:     token,
		ExpiresAt: time.Now().Add(verifyExpiry),
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, "", ErrDuplicateEmail
		}
		return models.User{}, "", err
	}
	return u, token, nil
}

// Authenticate checks an email/password pair. The same error comes back for
// an unknown email and a wrong password.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// VerifyEmail consumes a verification token: the filter matches the token
// and its expiry, and the update both marks the e-mail verified and unsets
// the token, so a second use cannot match.
func (s *Store) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{
			"verify_token.token":      token,
			"verify_token.expires_at": bson.M{"$gt": time.Now()},
		}),
		bson.M{
			"$set":   bson.M{"is_email_verified": true, "updated_at": time.Now()},
			"$unset": bson.M{"verify_token": ""},
		},
	).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	u.IsEmailVerified = true
	return &u, nil
}

// MintResetToken stores a fresh password-reset token on the user and
// returns the plain token for the mail link.
func (s *Store) MintResetToken(ctx context.Context, email string, expiry time.Duration) (*models.User, string, error) {
	token := uuid.NewString()
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{"email": normalize.Email(email)}),
		bson.M{"$set": bson.M{
			"reset_token": models.OneTimeToken{
				Purpose:   models.TokenPasswordReset,
				Token:     token,
				ExpiresAt: time.Now().Add(expiry),
			},
			"updated_at": time.Now(),
		}},
	).Decode(&u)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// ResetPassword consumes a reset token and installs the new password hash.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return nil, err
	}
	var u models.User
	err = s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{
			"reset_token.token":      token,
			"reset_token.expires_at": bson.M{"$gt": time.Now()},
		}),
		bson.M{
			"$set":   bson.M{"password": string(hash), "updated_at": time.Now()},
			"$unset": bson.M{"reset_token": ""},
		},
	).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &u, nil
}

// ProfileUpdate holds the self-service editable fields.
type ProfileUpdate struct {
	FirstName     string
	LastName      string
	Address       string
	PhoneNumber   string
	BankName      string
	AccountNumber string
	AccountType   string
	AccountName   string
}

// UpdateProfile replaces the editable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	first := normalize.Name(upd.FirstName)
	last := normalize.Name(upd.LastName)
	set := bson.M{
		"first_name":     first,
		"last_name":      last,
		"full_name_ci":   text.Fold(first + " " + last),
		"address":        upd.Address,
		"phone_number":   upd.PhoneNumber,
		"bank_name":      upd.BankName,
		"account_number": upd.AccountNumber,
		"account_type":   upd.AccountType,
		"account_name":   upd.AccountName,
		"updated_at":     time.Now(),
	}
	_, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": set})
	return err
}

// GrantRoles adds tags to a user's role set without duplicating existing
// ones.
func (s *Store) GrantRoles(ctx context.Context, id primitive.ObjectID, tags []string) (*models.User, error) {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := normalize.Tag(t); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		notDeleted(bson.M{"_id": id}),
		bson.M{
			"$addToSet": bson.M{"roles": bson.M{"$each": cleaned}},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindModeratorsForCategory returns non-deleted users whose role set
// intersects {Moderator, category} — the category-scoped routing rule. The
// Shared Services catch-all moderators are always included.
func (s *Store) FindModeratorsForCategory(ctx context.Context, category string) ([]models.User, error) {
	filter := notDeleted(bson.M{
		"roles": bson.M{"$all": []interface{}{models.RoleModerator}},
		"$or": []bson.M{
			{"roles": category},
			{"roles": models.CategorySharedServices},
		},
	})
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var mods []models.User
	if err := cur.All(ctx, &mods); err != nil {
		return nil, err
	}
	return mods, nil
}

// SoftDelete marks a user deleted; the record stays for audit.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID, deletedBy string) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"deleted_at": now,
		"deleted_by": deletedBy,
		"updated_at": now,
	}})
	return err
}

// PromoteSuperAdmin grants the Super Admin tag to the user with the given
// e-mail, if one exists. Startup bootstrap; missing user is not an error.
func (s *Store) PromoteSuperAdmin(ctx context.Context, email string) error {
	_, err := s.c.UpdateOne(ctx,
		notDeleted(bson.M{"email": normalize.Email(email)}),
		bson.M{
			"$addToSet": bson.M{"roles": models.RoleSuperAdmin},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	return err
}
