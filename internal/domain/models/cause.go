package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cause approval states. A cause is created Pending and moves to Approved or
// Disapproved by a moderator decision; Resolved is reachable only from
// Approved and is terminal.
const (
	ApprovalPending     = 0
	ApprovalApproved    = 1
	ApprovalDisapproved = 2
)

// Cause is a fundraising campaign. AmountDonated and NumberOfVotes are
// running totals maintained exclusively through $inc updates by the
// engagement stores; edits never touch them.
type Cause struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CauseTitle       string             `bson:"cause_title" json:"cause_title"`
	BriefDescription string             `bson:"brief_description" json:"brief_description"`
	CharityInfo      string             `bson:"charity_information,omitempty" json:"charity_information,omitempty"`
	AdditionalInfo   string             `bson:"additional_information,omitempty" json:"additional_information,omitempty"`
	AccountNumber    string             `bson:"account_number,omitempty" json:"account_number,omitempty"`

	AcceptCommentsAndReviews bool `bson:"accept_comments_and_reviews" json:"accept_comments_and_reviews"`
	WatchCause               bool `bson:"watch_cause" json:"watch_cause"`
	CauseFundVisibility      bool `bson:"cause_fund_visibility" json:"cause_fund_visibility"`
	ShareOnSocialMedia       bool `bson:"share_on_social_media" json:"share_on_social_media"`

	CausePhotos []string `bson:"cause_photos,omitempty" json:"cause_photos,omitempty"`
	CauseVideo  string   `bson:"cause_video,omitempty" json:"cause_video,omitempty"`

	// AmountRequired and AmountDonated are integer minor currency units.
	AmountRequired int64 `bson:"amount_required" json:"amount_required"`
	AmountDonated  int64 `bson:"amount_donated" json:"amount_donated"`
	NumberOfVotes  int64 `bson:"number_of_votes" json:"number_of_votes"`

	Category  string             `bson:"category" json:"category"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`

	IsApproved             int           `bson:"isApproved" json:"isApproved"`
	ApprovedDisapprovedBy  string        `bson:"approved_or_disapproved_by,omitempty" json:"approved_or_disapproved_by,omitempty"`
	ApprovedDisapprovedAt  *time.Time    `bson:"approved_or_disapproved_at,omitempty" json:"approved_or_disapproved_at,omitempty"`
	ReasonForDisapproval   string        `bson:"reason_for_disapproval,omitempty" json:"-"`
	ReasonViewToken        *OneTimeToken `bson:"reason_view_token,omitempty" json:"-"`

	IsResolved         bool          `bson:"isResolved" json:"isResolved"`
	MarkedAsResolvedBy string        `bson:"marked_as_resolved_by,omitempty" json:"marked_as_resolved_by,omitempty"`
	ResolvedAt         *time.Time    `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	SuccessStoryToken  *OneTimeToken `bson:"success_story_token,omitempty" json:"-"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`
	DeletedBy string     `bson:"deleted_by,omitempty" json:"-"`
}
