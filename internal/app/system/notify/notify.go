// Package notify turns domain events into outbound e-mail. It is the only
// bus subscriber; handlers never talk to the mailer directly.
package notify

import (
	"context"
	"fmt"

	userstore "github.com/instiq/caritas/internal/app/store/users"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/mailer"
	"go.uber.org/zap"
)

// SiteName appears in e-mail copy.
const SiteName = "Caritas"

// Notifier routes events to mail templates. Moderator recipients are looked
// up at dispatch time so role grants take effect without restarts.
type Notifier struct {
	mail    *mailer.Mailer
	users   *userstore.Store
	baseURL string
	log     *zap.Logger
}

// New creates a Notifier. baseURL is the externally reachable origin used in
// mail links, without a trailing slash.
func New(mail *mailer.Mailer, users *userstore.Store, baseURL string, log *zap.Logger) *Notifier {
	return &Notifier{mail: mail, users: users, baseURL: baseURL, log: log}
}

// Handle is the bus subscriber entry point.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) {
	var err error
	switch e := ev.(type) {
	case events.UserRegistered:
		err = n.userRegistered(e)
	case events.PasswordResetRequested:
		err = n.passwordReset(e)
	case events.CauseSubmitted:
		err = n.causeSubmitted(ctx, e)
	case events.CauseApproved:
		err = n.causeApproved(e)
	case events.CauseDisapproved:
		err = n.causeDisapproved(e)
	case events.CauseResolved:
		err = n.causeResolved(ctx, e)
	default:
		return
	}
	if err != nil {
		n.log.Error("notification failed",
			zap.String("event", ev.Name()),
			zap.Error(err))
	}
}

func (n *Notifier) userRegistered(e events.UserRegistered) error {
	msg := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  SiteName,
		Link:      fmt.Sprintf("%s/api/users/verify_email/%s", n.baseURL, e.PlainVerifyToken),
		ExpiresIn: "24 hours",
	})
	msg.To = []string{e.User.Email}
	return n.mail.Send(msg)
}

func (n *Notifier) passwordReset(e events.PasswordResetRequested) error {
	msg := mailer.BuildPasswordResetEmail(mailer.PasswordResetEmailData{
		Link:      fmt.Sprintf("%s/api/users/update_password/%s", n.baseURL, e.PlainResetToken),
		ExpiresIn: "1 hour",
	})
	msg.To = []string{e.User.Email}
	return n.mail.Send(msg)
}

// causeSubmitted alerts every moderator scoped to the cause's category,
// including the Shared Services catch-all moderators.
func (n *Notifier) causeSubmitted(ctx context.Context, e events.CauseSubmitted) error {
	to, err := n.moderatorEmails(ctx, e.Cause.Category)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		n.log.Warn("no moderators for category, review alert not sent",
			zap.String("category", e.Cause.Category),
			zap.String("cause_id", e.Cause.ID.Hex()))
		return nil
	}
	msg := mailer.BuildCauseReviewEmail(mailer.CauseReviewEmailData{
		CauseTitle: e.Cause.CauseTitle,
		Category:   e.Cause.Category,
		Link:       fmt.Sprintf("%s/api/causes/pending", n.baseURL),
	})
	msg.To = to
	return n.mail.Send(msg)
}

func (n *Notifier) causeApproved(e events.CauseApproved) error {
	msg := mailer.BuildCauseApprovedEmail(mailer.CauseDecisionEmailData{
		FirstName:  e.Creator.FirstName,
		CauseTitle: e.Cause.CauseTitle,
		Link:       fmt.Sprintf("%s/api/causes/%s", n.baseURL, e.Cause.ID.Hex()),
	})
	msg.To = []string{e.Creator.Email}
	return n.mail.Send(msg)
}

func (n *Notifier) causeDisapproved(e events.CauseDisapproved) error {
	msg := mailer.BuildCauseDisapprovedEmail(mailer.CauseDecisionEmailData{
		FirstName:  e.Creator.FirstName,
		CauseTitle: e.Cause.CauseTitle,
		Link:       fmt.Sprintf("%s/api/causes/disapproval_reason/%s", n.baseURL, e.PlainReasonToken),
	})
	msg.To = []string{e.Creator.Email}
	return n.mail.Send(msg)
}

// causeResolved mails the creator a story-submission link and lets the
// category moderators know the cause closed out.
func (n *Notifier) causeResolved(ctx context.Context, e events.CauseResolved) error {
	msg := mailer.BuildCauseResolvedEmail(mailer.CauseDecisionEmailData{
		FirstName:  e.Creator.FirstName,
		CauseTitle: e.Cause.CauseTitle,
		Link:       fmt.Sprintf("%s/api/success_stories/create/%s", n.baseURL, e.PlainStoryToken),
	})
	msg.To = []string{e.Creator.Email}
	if err := n.mail.Send(msg); err != nil {
		return err
	}

	to, err := n.moderatorEmails(ctx, e.Cause.Category)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		return nil
	}
	modMsg := mailer.BuildCauseResolvedModeratorEmail(mailer.CauseReviewEmailData{
		CauseTitle: e.Cause.CauseTitle,
		Category:   e.Cause.Category,
		Link:       fmt.Sprintf("%s/api/causes/%s", n.baseURL, e.Cause.ID.Hex()),
	})
	modMsg.To = to
	return n.mail.Send(modMsg)
}

func (n *Notifier) moderatorEmails(ctx context.Context, category string) ([]string, error) {
	mods, err := n.users.FindModeratorsForCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(mods))
	for _, m := range mods {
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}
	return emails, nil
}
