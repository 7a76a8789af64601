package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents every account in the system: donors, cause creators,
// moderators, and admins. Which of those a user is comes from the Roles set,
// not from separate collections.
//
// Users are soft-deleted only; DeletedAt set means the record is excluded
// from every lookup.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"first_name" json:"first_name"`
	LastName   string             `bson:"last_name" json:"last_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"` // bcrypt hash
	Roles      RoleSet            `bson:"roles" json:"roles"`

	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	PhoneNumber string `bson:"phone_number,omitempty" json:"phone_number,omitempty"`

	// Banking details for receiving payouts on resolved causes.
	BankName      string `bson:"bank_name,omitempty" json:"bank_name,omitempty"`
	AccountNumber string `bson:"account_number,omitempty" json:"account_number,omitempty"`
	AccountType   string `bson:"account_type,omitempty" json:"account_type,omitempty"`
	AccountName   string `bson:"account_name,omitempty" json:"account_name,omitempty"`

	IsEmailVerified bool          `bson:"is_email_verified" json:"is_email_verified"`
	VerifyToken     *OneTimeToken `bson:"verify_token,omitempty" json:"-"`
	ResetToken      *OneTimeToken `bson:"reset_token,omitempty" json:"-"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`
	DeletedBy string     `bson:"deleted_by,omitempty" json:"-"`
}
