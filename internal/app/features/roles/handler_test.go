package roles_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiq/caritas/internal/app/features/roles"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/instiq/caritas/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*roles.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return roles.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestHandleCreate(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "admin@example.com")

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPost, "/", map[string]string{
		"role": "Auditor",
	}, admin)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create role: got %d, body %s", rec.Code, rec.Body.String())
	}

	listed, err := h.Refs.ListRoles(ctx)
	if err != nil {
		t.Fatalf("ListRoles failed: %v", err)
	}
	if len(listed) != 1 || listed[0].Role != "Auditor" {
		t.Errorf("roles after create: %+v", listed)
	}
}

func TestHandleGrant(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "admin@example.com")
	target := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")

	req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/grant/x", map[string][]string{
		"roles": {models.RoleModerator, models.CategoryFood},
	}, admin)
	req = testutil.WithChiURLParam(req, "userID", target.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleGrant(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("grant: got %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.Roles.Has(models.RoleModerator) || !stored.Roles.Has(models.CategoryFood) {
		t.Errorf("roles not granted: %v", stored.Roles)
	}

	// Unknown user id is a 404.
	req = testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/grant/x", map[string][]string{
		"roles": {models.RoleModerator},
	}, admin)
	req = testutil.WithChiURLParam(req, "userID", "64b000000000000000000000")
	rec = httptest.NewRecorder()
	h.HandleGrant(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("grant to unknown user: got %d, want 404", rec.Code)
	}
}
