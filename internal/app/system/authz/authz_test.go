package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiq/caritas/internal/app/system/auth"
	"github.com/instiq/caritas/internal/app/system/authz"
	"github.com/instiq/caritas/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reqWithRoles(roles ...string) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	return auth.WithPrincipal(r, &auth.Principal{
		UserID: primitive.NewObjectID(),
		Roles:  models.RoleSet(roles),
	})
}

func TestPredicates_SetMembership(t *testing.T) {
	// A caller with {Moderator, Food} passes IsModerator: membership is a set
	// test, not equality against a single role string.
	r := reqWithRoles(models.RoleModerator, models.CategoryFood)

	if !authz.IsModerator(r) {
		t.Error("IsModerator should pass for {Moderator, Food}")
	}
	if authz.IsAdmin(r) {
		t.Error("IsAdmin should fail for {Moderator, Food}")
	}
	if authz.IsAdminOrSuperAdmin(r) {
		t.Error("IsAdminOrSuperAdmin should fail for {Moderator, Food}")
	}
}

func TestIsAdminOrSuperAdmin(t *testing.T) {
	if !authz.IsAdminOrSuperAdmin(reqWithRoles(models.RoleAdmin)) {
		t.Error("admin should pass")
	}
	if !authz.IsAdminOrSuperAdmin(reqWithRoles(models.RoleSuperAdmin, models.RoleUser)) {
		t.Error("superadmin should pass")
	}
	if authz.IsAdminOrSuperAdmin(reqWithRoles(models.RoleVendor, models.RoleVolunteer)) {
		t.Error("vendor/volunteer should fail")
	}
}

func TestPredicates_Anonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	if authz.IsModerator(r) || authz.IsAdmin(r) || authz.IsSuperAdmin(r) ||
		authz.IsVendor(r) || authz.IsVolunteer(r) {
		t.Error("no predicate may pass for an anonymous request")
	}
	if _, _, ok := authz.UserCtx(r); ok {
		t.Error("UserCtx should report no user")
	}
}

func TestModerationScope(t *testing.T) {
	tests := []struct {
		name     string
		roles    models.RoleSet
		wantCats []string
		wantAll  bool
	}{
		{
			name:     "food moderator sees food only",
			roles:    models.RoleSet{models.RoleModerator, models.CategoryFood},
			wantCats: []string{models.CategoryFood},
		},
		{
			name:     "two category tags union",
			roles:    models.RoleSet{models.RoleModerator, models.CategoryFood, models.CategoryHealth},
			wantCats: []string{models.CategoryFood, models.CategoryHealth},
		},
		{
			name:    "shared services sees all",
			roles:   models.RoleSet{models.RoleModerator, models.CategorySharedServices},
			wantAll: true,
		},
		{
			name:    "shared services wins over specific tags",
			roles:   models.RoleSet{models.RoleModerator, models.CategoryFood, models.CategorySharedServices},
			wantAll: true,
		},
		{
			name:  "moderator with no category tag sees nothing",
			roles: models.RoleSet{models.RoleModerator},
		},
		{
			name:  "category tag without moderator tag sees nothing",
			roles: models.RoleSet{models.RoleUser, models.CategoryFood},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, all := authz.ModerationScope(tt.roles)
			if all != tt.wantAll {
				t.Errorf("all: got %v, want %v", all, tt.wantAll)
			}
			if len(cats) != len(tt.wantCats) {
				t.Fatalf("categories: got %v, want %v", cats, tt.wantCats)
			}
			for i := range cats {
				if cats[i] != tt.wantCats[i] {
					t.Errorf("categories[%d]: got %q, want %q", i, cats[i], tt.wantCats[i])
				}
			}
		})
	}
}

func TestCanModerateCategory(t *testing.T) {
	food := models.RoleSet{models.RoleModerator, models.CategoryFood}
	if !authz.CanModerateCategory(food, models.CategoryFood) {
		t.Error("food moderator should moderate Food")
	}
	if authz.CanModerateCategory(food, models.CategoryHealth) {
		t.Error("food moderator should not moderate Health")
	}

	shared := models.RoleSet{models.RoleModerator, models.CategorySharedServices}
	for _, c := range models.Categories {
		if !authz.CanModerateCategory(shared, c) {
			t.Errorf("shared-services moderator should moderate %s", c)
		}
	}
}
