// Package refstore manages the admin-curated reference collections: role
// tags, cause categories, banks, and account types. All four follow the same
// shape, so one generic-free store per collection would be four near-copies;
// instead each gets a thin typed wrapper over a shared insert/list core.
package refstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned when the reference value already exists (each
// collection carries a unique index on its name field).
var ErrDuplicate = errors.New("already exists")

type Store struct {
	roles        *mongo.Collection
	categories   *mongo.Collection
	banks        *mongo.Collection
	accountTypes *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		roles:        db.Collection("roles"),
		categories:   db.Collection("cause_categories"),
		banks:        db.Collection("banks"),
		accountTypes: db.Collection("account_types"),
	}
}

func insertRef(ctx context.Context, c *mongo.Collection, doc interface{}) error {
	if _, err := c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func listRef(ctx context.Context, c *mongo.Collection, sortField string, out interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: 1}})
	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

// CreateRole records a role tag definition.
func (s *Store) CreateRole(ctx context.Context, name string, createdBy primitive.ObjectID) (models.Role, error) {
	now := time.Now()
	r := models.Role{
		ID:        primitive.NewObjectID(),
		Role:      normalize.Tag(name),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := insertRef(ctx, s.roles, r); err != nil {
		return models.Role{}, err
	}
	return r, nil
}

// ListRoles returns every defined role tag, alphabetically.
func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	var rs []models.Role
	if err := listRef(ctx, s.roles, "role", &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// CreateCategory records a cause category.
func (s *Store) CreateCategory(ctx context.Context, name string, createdBy primitive.ObjectID) (models.CauseCategory, error) {
	now := time.Now()
	c := models.CauseCategory{
		ID:           primitive.NewObjectID(),
		CategoryName: normalize.Tag(name),
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := insertRef(ctx, s.categories, c); err != nil {
		return models.CauseCategory{}, err
	}
	return c, nil
}

// ListCategories returns every cause category, alphabetically.
func (s *Store) ListCategories(ctx context.Context) ([]models.CauseCategory, error) {
	var cs []models.CauseCategory
	if err := listRef(ctx, s.categories, "category_name", &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// CreateBank records a bank.
func (s *Store) CreateBank(ctx context.Context, name string, createdBy primitive.ObjectID) (models.Bank, error) {
	now := time.Now()
	b := models.Bank{
		ID:        primitive.NewObjectID(),
		BankName:  normalize.Tag(name),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := insertRef(ctx, s.banks, b); err != nil {
		return models.Bank{}, err
	}
	return b, nil
}

// ListBanks returns every bank, alphabetically.
func (s *Store) ListBanks(ctx context.Context) ([]models.Bank, error) {
	var bs []models.Bank
	if err := listRef(ctx, s.banks, "bank_name", &bs); err != nil {
		return nil, err
	}
	return bs, nil
}

// CreateAccountType records an account type.
func (s *Store) CreateAccountType(ctx context.Context, name string, createdBy primitive.ObjectID) (models.AccountType, error) {
	now := time.Now()
	a := models.AccountType{
		ID:          primitive.NewObjectID(),
		AccountType: normalize.Tag(name),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := insertRef(ctx, s.accountTypes, a); err != nil {
		return models.AccountType{}, err
	}
	return a, nil
}

// ListAccountTypes returns every account type, alphabetically.
func (s *Store) ListAccountTypes(ctx context.Context) ([]models.AccountType, error) {
	var as []models.AccountType
	if err := listRef(ctx, s.accountTypes, "account_type", &as); err != nil {
		return nil, err
	}
	return as, nil
}
