package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiq/caritas/internal/app/features/users"
	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*users.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tokens, err := auth.NewTokenManager("test-signing-key")
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	bus := events.NewBus(zap.NewNop(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bus.Start(ctx)

	return users.NewHandler(db, tokens, bus, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestHandleRegister_Validation(t *testing.T) {
	// Validation failures never reach the database.
	h := &users.Handler{Log: zap.NewNop()}

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short first name", map[string]string{
			"first_name": "Jo", "last_name": "Okafor",
			"email": "jo@example.com", "password": "longenough"}},
		{"bad email", map[string]string{
			"first_name": "Joan", "last_name": "Okafor",
			"email": "not-an-email", "password": "longenough"}},
		{"short password", map[string]string{
			"first_name": "Joan", "last_name": "Okafor",
			"email": "jo@example.com", "password": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/register", tt.body)
			rec := httptest.NewRecorder()
			h.HandleRegister(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
			env := testutil.DecodeEnvelope(t, rec)
			if env.Status != "Bad request" {
				t.Errorf("envelope status: got %q", env.Status)
			}
		})
	}
}

func TestHandleRegister_Success(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"first_name": "Joan",
		"last_name":  "Okafor",
		"email":      "joan@example.com",
		"password":   "longenough",
	})
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(auth.HeaderName) == "" {
		t.Error("expected a session token in x-auth-token")
	}

	var profile struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	testutil.DecodeData(t, rec, &profile)
	if profile.Email != "joan@example.com" {
		t.Errorf("profile email: got %q", profile.Email)
	}

	// Registration doubles as a newsletter opt-in.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	subscribed, err := h.Newsletter.IsSubscribed(ctx, "joan@example.com")
	if err != nil {
		t.Fatalf("IsSubscribed failed: %v", err)
	}
	if !subscribed {
		t.Error("registration should subscribe the email to the newsletter")
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ensureUserEmailIndex(t, fixtures)
	fixtures.CreateUser(ctx, "Existing", "User", "taken@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"first_name": "Joan",
		"last_name":  "Okafor",
		"email":      "taken@example.com",
		"password":   "longenough",
	})
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	h, _ := newHandler(t)

	// Register through the real endpoint so the stored hash is authentic.
	reg := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"first_name": "Joan", "last_name": "Okafor",
		"email": "joan@example.com", "password": "longenough",
	})
	regRec := httptest.NewRecorder()
	h.HandleRegister(regRec, reg)
	if regRec.Code != http.StatusOK {
		t.Fatalf("register failed: %s", regRec.Body.String())
	}

	// Unverified account: signed in but gated with 206 and empty data.
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{
		"email": "joan@example.com", "password": "longenough",
	}))
	if rec.Code != http.StatusPartialContent {
		t.Errorf("unverified login: got %d, want 206", rec.Code)
	}
	if rec.Header().Get(auth.HeaderName) == "" {
		t.Error("unverified login should still return a token")
	}
	env := testutil.DecodeEnvelope(t, rec)
	if string(env.Data) != "[]" {
		t.Errorf("unverified login data: got %s, want []", env.Data)
	}

	// Wrong password and unknown email produce the same message.
	for _, body := range []map[string]string{
		{"email": "joan@example.com", "password": "wrongpass"},
		{"email": "nobody@example.com", "password": "longenough"},
	} {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("bad credentials: got %d, want 400", rec.Code)
		}
		env := testutil.DecodeEnvelope(t, rec)
		if env.Message != "Invalid email or password." {
			t.Errorf("message must not reveal which half failed: %q", env.Message)
		}
	}
}

func TestVerifyThenLogin(t *testing.T) {
	h, _ := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reg := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"first_name": "Joan", "last_name": "Okafor",
		"email": "joan@example.com", "password": "longenough",
	})
	regRec := httptest.NewRecorder()
	h.HandleRegister(regRec, reg)

	// Pull the stored token straight from the database, as the mail link
	// would carry it.
	stored, err := h.Users.GetByEmail(ctx, "joan@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if stored.VerifyToken == nil {
		t.Fatal("no verification token stored")
	}

	vreq := httptest.NewRequest(http.MethodGet, "/verify_email/x", nil)
	vreq = testutil.WithChiURLParam(vreq, "token", stored.VerifyToken.Token)
	vrec := httptest.NewRecorder()
	h.HandleVerifyEmail(vrec, vreq)
	if vrec.Code != http.StatusOK {
		t.Fatalf("verify failed: %s", vrec.Body.String())
	}

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{
		"email": "joan@example.com", "password": "longenough",
	}))
	if rec.Code != http.StatusOK {
		t.Errorf("verified login: got %d, want 200", rec.Code)
	}
}

func TestHandleUpdateMe(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/me", map[string]string{
		"first_name":     "Joanna",
		"last_name":      "Okafor",
		"address":        "12 Marina Road, Lagos",
		"bank_name":      "First Bank",
		"account_number": "0123456789",
	}, u)
	rec := httptest.NewRecorder()
	h.HandleUpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.FirstName != "Joanna" || stored.BankName != "First Bank" {
		t.Errorf("profile not updated: %+v", stored)
	}
}

func ensureUserEmailIndex(t *testing.T, fixtures *testutil.Fixtures) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := fixtures.DB().Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create email index: %v", err)
	}
}
