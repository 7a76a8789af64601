package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewJSONRequest creates a request with a JSON-encoded body.
func NewJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AsUser injects the given user as the authenticated principal, bypassing
// the token middleware.
func AsUser(r *http.Request, u models.User) *http.Request {
	return auth.WithPrincipal(r, &auth.Principal{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  u.Roles,
	})
}

// NewAuthenticatedJSONRequest combines NewJSONRequest and AsUser.
func NewAuthenticatedJSONRequest(t *testing.T, method, target string, body interface{}, u models.User) *http.Request {
	t.Helper()
	return AsUser(NewJSONRequest(t, method, target, body), u)
}

// Envelope mirrors the response envelope for decoding in assertions.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a recorded response body.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

// DecodeData unmarshals the envelope's data payload into out.
func DecodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) Envelope {
	t.Helper()

	env := DecodeEnvelope(t, rec)
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode envelope data: %v (data: %s)", err, env.Data)
		}
	}
	return env
}
