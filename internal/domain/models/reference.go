package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is an admin-managed role tag definition. Membership itself lives on
// User.Roles; this collection exists so admins can audit which tags are in
// circulation.
type Role struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role      string             `bson:"role" json:"role"`
	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// CauseCategory is reference data backing the category dropdown.
type CauseCategory struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryName string             `bson:"category_name" json:"category_name"`
	CreatedBy    primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Bank is reference data for the banking-details form.
type Bank struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BankName  string             `bson:"bank_name" json:"bank_name"`
	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// AccountType is reference data for the banking-details form.
type AccountType struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountType string             `bson:"account_type" json:"account_type"`
	CreatedBy   primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewsletterSubscription is created automatically at registration and by the
// public subscribe endpoint.
type NewsletterSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
