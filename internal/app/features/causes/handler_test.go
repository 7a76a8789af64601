package causes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiq/caritas/internal/app/features/causes"
	"github.com/instiq/caritas/internal/app/system/events"
	"github.com/instiq/caritas/internal/app/system/media"
	"github.com/instiq/caritas/internal/domain/models"
	"github.com/instiq/caritas/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*causes.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	store, err := media.NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	bus := events.NewBus(zap.NewNop(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	bus.Start(ctx)

	h := causes.NewHandler(db.Client(), db, store, bus, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func TestHandleListApproved(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	fixtures.CreateApprovedCause(ctx, creator, "Clean Water", models.CategoryHealth)
	fixtures.CreateApprovedCause(ctx, creator, "School Books", models.CategoryEducation)
	fixtures.CreatePendingCause(ctx, creator, "Not Yet", models.CategoryFood)

	rec := httptest.NewRecorder()
	h.HandleListApproved(rec, httptest.NewRequest(http.MethodGet, "/approved_causes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var list []models.Cause
	testutil.DecodeData(t, rec, &list)
	if len(list) != 2 {
		t.Errorf("approved listing: got %d causes, want 2", len(list))
	}
	for _, c := range list {
		if c.IsApproved != models.ApprovalApproved {
			t.Errorf("cause %q is not approved", c.CauseTitle)
		}
	}
}

func TestHandleListByCategory(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	fixtures.CreateApprovedCause(ctx, creator, "Clean Water", models.CategoryHealth)
	fixtures.CreateApprovedCause(ctx, creator, "School Books", models.CategoryEducation)

	req := httptest.NewRequest(http.MethodGet, "/category/x", nil)
	req = testutil.WithChiURLParam(req, "name", models.CategoryHealth)
	rec := httptest.NewRecorder()
	h.HandleListByCategory(rec, req)

	var list []models.Cause
	testutil.DecodeData(t, rec, &list)
	if len(list) != 1 || list[0].CauseTitle != "Clean Water" {
		t.Errorf("category listing: got %+v", list)
	}

	// Unknown category is a validation failure, not an empty list.
	bad := httptest.NewRequest(http.MethodGet, "/category/x", nil)
	bad = testutil.WithChiURLParam(bad, "name", "Weapons")
	badRec := httptest.NewRecorder()
	h.HandleListByCategory(badRec, bad)
	if badRec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: got %d, want 400", badRec.Code)
	}
}

func TestHandleGet_PendingHiddenFromStrangers(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	stranger := fixtures.CreateUser(ctx, "Sam", "Eze", "sam@example.com")
	pending := fixtures.CreatePendingCause(ctx, creator, "Not Yet", models.CategoryFood)

	get := func(u *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
		if u != nil {
			req = testutil.AsUser(req, *u)
		}
		rec := httptest.NewRecorder()
		h.HandleGet(rec, req)
		return rec
	}

	if rec := get(nil); rec.Code != http.StatusNotFound {
		t.Errorf("anonymous view of pending cause: got %d, want 404", rec.Code)
	}
	if rec := get(&stranger); rec.Code != http.StatusNotFound {
		t.Errorf("stranger view of pending cause: got %d, want 404", rec.Code)
	}
	if rec := get(&creator); rec.Code != http.StatusOK {
		t.Errorf("creator view of own pending cause: got %d, want 200", rec.Code)
	}
}

func TestModerationFlow(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	foodMod := fixtures.CreateModerator(ctx, "foodmod@example.com", models.CategoryFood)
	healthMod := fixtures.CreateModerator(ctx, "healthmod@example.com", models.CategoryHealth)

	cause := fixtures.CreatePendingCause(ctx, creator, "Feed the Street", models.CategoryFood)

	approve := func(u models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/x/approve", nil)
		req = testutil.WithChiURLParam(req, "id", cause.ID.Hex())
		req = testutil.AsUser(req, u)
		rec := httptest.NewRecorder()
		h.HandleApprove(rec, req)
		return rec
	}

	// A moderator scoped to another category is denied.
	if rec := approve(healthMod); rec.Code != http.StatusForbidden {
		t.Errorf("out-of-scope approve: got %d, want 403", rec.Code)
	}

	if rec := approve(foodMod); rec.Code != http.StatusOK {
		t.Fatalf("in-scope approve: got %d, body %s", rec.Code, rec.Body.String())
	}

	// A second decision on the same cause fails.
	if rec := approve(foodMod); rec.Code != http.StatusBadRequest {
		t.Errorf("double approve: got %d, want 400", rec.Code)
	}

	stored, err := h.Causes.GetByID(ctx, cause.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.IsApproved != models.ApprovalApproved {
		t.Errorf("cause not approved: %d", stored.IsApproved)
	}
	if stored.ApprovedDisapprovedBy != foodMod.ID.Hex() {
		t.Errorf("decision not attributed: %q", stored.ApprovedDisapprovedBy)
	}
}

func TestDisapproveRequiresReason(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	mod := fixtures.CreateModerator(ctx, "mod@example.com", models.CategorySharedServices)
	cause := fixtures.CreatePendingCause(ctx, creator, "Vague Appeal", models.CategoryFood)

	disapprove := func(body interface{}) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/x/disapprove", body, mod)
		req = testutil.WithChiURLParam(req, "id", cause.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleDisapprove(rec, req)
		return rec
	}

	if rec := disapprove(map[string]string{"reason": ""}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty reason: got %d, want 400", rec.Code)
	}
	if rec := disapprove(map[string]string{"reason": "Account details do not match."}); rec.Code != http.StatusOK {
		t.Fatalf("disapprove: got %d, body %s", rec.Code, rec.Body.String())
	}

	// The stored token backs the one-time reason view link.
	stored, err := h.Causes.GetByID(ctx, cause.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.ReasonViewToken == nil {
		t.Fatal("no reason view token minted")
	}

	view := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/disapproval_reason/x", nil)
		req = testutil.WithChiURLParam(req, "token", stored.ReasonViewToken.Token)
		rec := httptest.NewRecorder()
		h.HandleDisapprovalReason(rec, req)
		return rec
	}

	first := view()
	if first.Code != http.StatusOK {
		t.Fatalf("first reason view: got %d, body %s", first.Code, first.Body.String())
	}
	var reason struct {
		Reason string `json:"reason"`
	}
	testutil.DecodeData(t, first, &reason)
	if reason.Reason != "Account details do not match." {
		t.Errorf("reason: got %q", reason.Reason)
	}

	if second := view(); second.Code != http.StatusBadRequest {
		t.Errorf("second reason view: got %d, want 400", second.Code)
	}
}

func TestHandleVote(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	voter := fixtures.CreateUser(ctx, "Sam", "Eze", "sam@example.com")
	cause := fixtures.CreateApprovedCause(ctx, creator, "Clean Water", models.CategoryHealth)

	vote := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/vote/x", nil)
		req = testutil.WithChiURLParam(req, "id", cause.ID.Hex())
		req = testutil.AsUser(req, voter)
		rec := httptest.NewRecorder()
		h.HandleVote(rec, req)
		return rec
	}

	if rec := vote(); rec.Code != http.StatusOK {
		t.Fatalf("vote: got %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := vote(); rec.Code != http.StatusBadRequest {
		t.Errorf("second vote: got %d, want 400", rec.Code)
	}

	stored, err := h.Causes.GetByID(ctx, cause.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.NumberOfVotes != 1 {
		t.Errorf("vote counter: got %d, want 1", stored.NumberOfVotes)
	}

	// Voting enrolls the voter as a follower.
	followers, err := h.Followers.ListForCause(ctx, cause.ID)
	if err != nil {
		t.Fatalf("ListForCause failed: %v", err)
	}
	if len(followers) != 1 || followers[0].UserID != voter.ID {
		t.Errorf("followers after vote: %+v", followers)
	}
}

func TestHandleVote_PendingCause(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	voter := fixtures.CreateUser(ctx, "Sam", "Eze", "sam@example.com")
	pending := fixtures.CreatePendingCause(ctx, creator, "Not Yet", models.CategoryFood)

	req := httptest.NewRequest(http.MethodPut, "/vote/x", nil)
	req = testutil.WithChiURLParam(req, "id", pending.ID.Hex())
	req = testutil.AsUser(req, voter)
	rec := httptest.NewRecorder()
	h.HandleVote(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("vote on pending cause: got %d, want 400", rec.Code)
	}
}

func TestHandleDonate(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	donor := fixtures.CreateUser(ctx, "Sam", "Eze", "sam@example.com")
	cause := fixtures.CreateApprovedCause(ctx, creator, "Clean Water", models.CategoryHealth)

	donate := func(body interface{}, asUser *models.User) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPut, "/donate/x", body)
		req = testutil.WithChiURLParam(req, "id", cause.ID.Hex())
		if asUser != nil {
			req = testutil.AsUser(req, *asUser)
		}
		rec := httptest.NewRecorder()
		h.HandleDonate(rec, req)
		return rec
	}

	if rec := donate(map[string]int64{"amount_donated": 0}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("zero amount: got %d, want 400", rec.Code)
	}
	if rec := donate(map[string]int64{"amount_donated": 5000}, &donor); rec.Code != http.StatusOK {
		t.Fatalf("signed-in donation: got %d, body %s", rec.Code, rec.Body.String())
	}
	// Anonymous donations are allowed.
	if rec := donate(map[string]int64{"amount_donated": 2500}, nil); rec.Code != http.StatusOK {
		t.Fatalf("anonymous donation: got %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := h.Causes.GetByID(ctx, cause.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.AmountDonated != 7500 {
		t.Errorf("running total: got %d, want 7500", stored.AmountDonated)
	}

	ledger, err := h.Donations.ListForCause(ctx, cause.ID)
	if err != nil {
		t.Fatalf("ListForCause failed: %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("ledger entries: got %d, want 2", len(ledger))
	}
	if ledger[0].DonorID == nil || *ledger[0].DonorID != donor.ID {
		t.Errorf("first entry should carry the donor id: %+v", ledger[0])
	}
	if ledger[1].DonorID != nil {
		t.Errorf("second entry should be anonymous: %+v", ledger[1])
	}
}

func TestHandleEdit_OwnerOnly(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	stranger := fixtures.CreateUser(ctx, "Sam", "Eze", "sam@example.com")
	cause := fixtures.CreateApprovedCause(ctx, creator, "Clean Water", models.CategoryHealth)

	body := map[string]interface{}{
		"cause_title":       "Clean Water for Makoko",
		"brief_description": "Drill two boreholes.",
		"amount_required":   750000,
		"category":          models.CategoryHealth,
	}

	edit := func(u models.User) *httptest.ResponseRecorder {
		req := testutil.NewAuthenticatedJSONRequest(t, http.MethodPut, "/edit/x", body, u)
		req = testutil.WithChiURLParam(req, "id", cause.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleEdit(rec, req)
		return rec
	}

	if rec := edit(stranger); rec.Code != http.StatusForbidden {
		t.Errorf("stranger edit: got %d, want 403", rec.Code)
	}
	if rec := edit(creator); rec.Code != http.StatusOK {
		t.Fatalf("owner edit: got %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := h.Causes.GetByID(ctx, cause.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.CauseTitle != "Clean Water for Makoko" {
		t.Errorf("title not updated: %q", stored.CauseTitle)
	}
	// Editing never resets the approval state.
	if stored.IsApproved != models.ApprovalApproved {
		t.Errorf("edit reset approval state: %d", stored.IsApproved)
	}
}

func TestHandleDelete(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Joan", "Okafor", "joan@example.com")
	cause := fixtures.CreateApprovedCause(ctx, creator, "Clean Water", models.CategoryHealth)

	req := httptest.NewRequest(http.MethodDelete, "/delete/x", nil)
	req = testutil.WithChiURLParam(req, "id", cause.ID.Hex())
	req = testutil.AsUser(req, creator)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d, body %s", rec.Code, rec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/x", nil)
	getReq = testutil.WithChiURLParam(getReq, "id", cause.ID.Hex())
	getRec := httptest.NewRecorder()
	h.HandleGet(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Errorf("deleted cause still visible: got %d", getRec.Code)
	}
}
