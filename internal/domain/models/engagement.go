package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote is an append-only (voter, cause) record. The votes collection carries
// a unique compound index on (voter_id, cause_id); a second vote by the same
// voter is refused, not merged.
type Vote struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VoterID primitive.ObjectID `bson:"voter_id" json:"voter_id"`
	CauseID primitive.ObjectID `bson:"cause_id" json:"cause_id"`
	VotedAt time.Time          `bson:"voted_at" json:"voted_at"`
}

// Donation is append-only and never mutated after creation. DonorID is nil
// for anonymous donations. Amount is integer minor currency units, always
// positive.
type Donation struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	DonorID   *primitive.ObjectID `bson:"donor_id,omitempty" json:"donor_id,omitempty"`
	CauseID   primitive.ObjectID  `bson:"cause_id" json:"cause_id"`
	Amount    int64               `bson:"amount_donated" json:"amount_donated"`
	DonatedAt time.Time           `bson:"donated_at" json:"donated_at"`
}

// CauseFollower marks a watch relationship, created as a side effect of
// voting. It does not confer ownership.
type CauseFollower struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	CauseID    primitive.ObjectID `bson:"cause_id" json:"cause_id"`
	FollowedAt time.Time          `bson:"followed_at" json:"followed_at"`
}

// SuccessStory is the testimonial published once a cause is resolved.
// At most one exists per cause (unique index on cause_id).
type SuccessStory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CauseID     primitive.ObjectID `bson:"cause_id" json:"cause_id"`
	Testimonial string             `bson:"testimonial" json:"testimonial"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time         `bson:"deleted_at,omitempty" json:"-"`
	DeletedBy   string             `bson:"deleted_by,omitempty" json:"-"`
}
