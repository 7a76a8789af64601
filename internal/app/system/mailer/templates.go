package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// VerificationEmailData holds data for the account-verification email.
type VerificationEmailData struct {
	SiteName  string
	Link      string
	ExpiresIn string // e.g. "24 hours"
}

// BuildVerificationEmail creates the e-mail sent right after registration.
func BuildVerificationEmail(data VerificationEmailData) Email {
	return Email{
		Subject: "Email Verification",
		TextBody: fmt.Sprintf(
			"You are receiving this email because you (or someone else) recently created an account on %s with this email. "+
				"If it is you, please click on the link below to confirm your email address.\n\n%s\n\n"+
				"The link expires in %s. Please ignore this email if you did not create an account on %s.\n",
			data.SiteName, data.Link, data.ExpiresIn, data.SiteName),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   fmt.Sprintf("You are receiving this email because you (or someone else) recently created an account on %s with this email.", data.SiteName),
			Action: "If it is you, please click on the link below to confirm your email address.",
			Link:   data.Link,
			Footer: fmt.Sprintf("Please ignore this email if you did not create an account on %s.", data.SiteName),
		}),
	}
}

// PasswordResetEmailData holds data for the password-reset email.
type PasswordResetEmailData struct {
	Link      string
	ExpiresIn string // e.g. "1 hour"
}

// BuildPasswordResetEmail creates the forgot-password email.
func BuildPasswordResetEmail(data PasswordResetEmailData) Email {
	return Email{
		Subject: "Password Reset",
		TextBody: fmt.Sprintf(
			"You are receiving this email because you (or someone else) have requested to change your password. "+
				"If it is you, please click on the link below to reset your password.\n\n%s\n\n"+
				"The link expires in %s. Please ignore this email if you did not request a password reset.\n",
			data.Link, data.ExpiresIn),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   "You are receiving this email because you (or someone else) have requested to change your password.",
			Action: "If it is you, please click on the link below to reset your password.",
			Link:   data.Link,
			Footer: "Please ignore this email if you did not request a password reset.",
		}),
	}
}

// CauseReviewEmailData notifies category moderators that a cause awaits
// review.
type CauseReviewEmailData struct {
	CauseTitle string
	Category   string
	Link       string
}

// BuildCauseReviewEmail creates the moderator alert sent on cause creation
// and, with a different subject, on resolution.
func BuildCauseReviewEmail(data CauseReviewEmailData) Email {
	return Email{
		Subject: fmt.Sprintf("A new %s cause awaits your review", data.Category),
		TextBody: fmt.Sprintf(
			"A new cause %q was submitted in the %s category and is waiting for moderation.\n\n%s\n",
			data.CauseTitle, data.Category, data.Link),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   fmt.Sprintf("A new cause %q was submitted in the %s category.", data.CauseTitle, data.Category),
			Action: "It is waiting for your moderation decision.",
			Link:   data.Link,
		}),
	}
}

// BuildCauseResolvedModeratorEmail informs category moderators a cause they
// oversee was resolved.
func BuildCauseResolvedModeratorEmail(data CauseReviewEmailData) Email {
	return Email{
		Subject: fmt.Sprintf("A %s cause has been resolved", data.Category),
		TextBody: fmt.Sprintf(
			"The cause %q in the %s category has been marked as resolved.\n\n%s\n",
			data.CauseTitle, data.Category, data.Link),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   fmt.Sprintf("The cause %q in the %s category has been marked as resolved.", data.CauseTitle, data.Category),
			Action: "No further action is required.",
			Link:   data.Link,
		}),
	}
}

// CauseDecisionEmailData is addressed to the cause creator.
type CauseDecisionEmailData struct {
	FirstName  string
	CauseTitle string
	Link       string
}

// BuildCauseApprovedEmail congratulates the creator on approval.
func BuildCauseApprovedEmail(data CauseDecisionEmailData) Email {
	return Email{
		Subject: "Your cause has been approved!",
		TextBody: fmt.Sprintf(
			"Congratulations %s!\n\nYour cause %q has been approved and is now visible to donors.\n\n%s\n",
			data.FirstName, data.CauseTitle, data.Link),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   fmt.Sprintf("Congratulations %s! Your cause %q has been approved.", data.FirstName, data.CauseTitle),
			Action: "It is now visible to donors.",
			Link:   data.Link,
		}),
	}
}

// BuildCauseDisapprovedEmail tells the creator a decision went against them;
// the link embeds the one-time reason-view token.
func BuildCauseDisapprovedEmail(data CauseDecisionEmailData) Email {
	return Email{
		Subject: "An update on your cause",
		TextBody: fmt.Sprintf(
			"Hello %s,\n\nUnfortunately your cause %q was not approved. "+
				"You can view the reason through the one-time link below.\n\n%s\n",
			data.FirstName, data.CauseTitle, data.Link),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   fmt.Sprintf("Hello %s, unfortunately your cause %q was not approved.", data.FirstName, data.CauseTitle),
			Action: "You can view the reason through the one-time link below. The link works exactly once.",
			Link:   data.Link,
		}),
	}
}

// BuildCauseResolvedEmail invites the creator to submit a success story via
// the token-bearing link.
func BuildCauseResolvedEmail(data CauseDecisionEmailData) Email {
	return Email{
		Subject: "Your cause has been resolved — share your story!",
		TextBody: fmt.Sprintf(
			"Congratulations %s!\n\nYour cause %q has been marked as resolved. "+
				"We would love to hear how it went — share your success story through the link below.\n\n%s\n",
			data.FirstName, data.CauseTitle, data.Link),
		HTMLBody: renderLinkHTML(linkEmailData{
			Lead:   fmt.Sprintf("Congratulations %s! Your cause %q has been marked as resolved.", data.FirstName, data.CauseTitle),
			Action: "We would love to hear how it went — share your success story through the link below.",
			Link:   data.Link,
		}),
	}
}

/* ---------------------------- shared HTML shell ---------------------------- */

type linkEmailData struct {
	Lead   string
	Action string
	Link   string
	Footer string
}

func renderLinkHTML(data linkEmailData) string {
	tmpl := template.Must(template.New("link").Parse(linkHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const linkHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #fc636b;">Caritas</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Lead}}</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Action}}</p>
              <p style="margin: 0 0 24px; text-align: center;">
                <a href="{{.Link}}" style="background-color: #fc636b; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none; display: inline-block;">{{.Link}}</a>
              </p>
              {{if .Footer}}<p style="margin: 0; font-size: 13px; color: #6b7280;">{{.Footer}}</p>{{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
