package models

import "time"

// OneTimeToken purposes.
const (
	TokenEmailVerify   = "email_verify"
	TokenPasswordReset = "password_reset"
	TokenReasonView    = "reason_view"
	TokenSuccessStory  = "success_story"
)

// OneTimeToken is a credential valid for exactly one successful use.
// It is embedded on the owning entity (User or Cause) and cleared atomically
// on first use; the stores guard the clearing update with the token value in
// the filter so a concurrent second use loses.
//
// A zero ExpiresAt means the token never expires (success-story and
// reason-view tokens have no deadline in the product).
type OneTimeToken struct {
	Purpose   string    `bson:"purpose" json:"purpose"`
	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at,omitempty" json:"-"`
}

// Expired reports whether the token has an expiry and it has passed.
func (t *OneTimeToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
