package mailer_test

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/instiq/caritas/internal/app/system/mailer"
	"go.uber.org/zap"
)

func TestSend_BuildsMIMEMessage(t *testing.T) {
	m := mailer.New(mailer.Config{
		Host:     "localhost",
		Port:     1025,
		From:     "support.caritas@instiq.com",
		FromName: "Caritas",
	}, zap.NewNop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.SetSendFunc(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	err := m.Send(mailer.Email{
		To:       []string{"creator@example.com"},
		Subject:  "Your cause has been approved!",
		TextBody: "Congratulations!",
		HTMLBody: "<p>Congratulations!</p>",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAddr != "localhost:1025" {
		t.Errorf("addr: got %q, want %q", gotAddr, "localhost:1025")
	}
	if gotFrom != "support.caritas@instiq.com" {
		t.Errorf("from: got %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "creator@example.com" {
		t.Errorf("to: got %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: Your cause has been approved!",
		"Content-Type: multipart/alternative",
		"Congratulations!",
		"<p>Congratulations!</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSend_NoRecipients(t *testing.T) {
	m := mailer.New(mailer.Config{Host: "localhost", Port: 1025}, zap.NewNop())
	if err := m.Send(mailer.Email{Subject: "x"}); err == nil {
		t.Fatal("expected error for empty recipient list")
	}
}

func TestSend_TransportErrorSurfaces(t *testing.T) {
	m := mailer.New(mailer.Config{Host: "localhost", Port: 1025}, zap.NewNop())
	m.SetSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	})
	if err := m.Send(mailer.Email{To: []string{"x@example.com"}}); err == nil {
		t.Fatal("expected transport error to surface")
	}
}

func TestTemplates_CarryTokenLinks(t *testing.T) {
	link := "https://caritas.instiq.com/api/causes/disapproval_reason/tok-123"
	email := mailer.BuildCauseDisapprovedEmail(mailer.CauseDecisionEmailData{
		FirstName:  "Ada",
		CauseTitle: "Clean Water",
		Link:       link,
	})
	if !strings.Contains(email.TextBody, link) || !strings.Contains(email.HTMLBody, link) {
		t.Error("disapproval email must embed the one-time reason link")
	}

	email = mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  "Caritas",
		Link:      "https://caritas.instiq.com/api/users/verify_email/tok-9",
		ExpiresIn: "24 hours",
	})
	if !strings.Contains(email.TextBody, "verify_email/tok-9") {
		t.Error("verification email must embed the verify link")
	}
	if !strings.Contains(email.TextBody, "24 hours") {
		t.Error("verification email must state the expiry window")
	}
}
