package access

import (
	"context"
	"errors"
	"testing"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/ports/auth"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" clinic_admin ")
	if !ok || r != RoleClinicAdmin {
		t.Fatalf("expected CLINIC_ADMIN, got %q ok=%v", r, ok)
	}
	if _, ok := ParseRole("ROOT"); ok {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestHasScope(t *testing.T) {
	if !HasScope(RoleAdmin, ScopeClinicsReminders) {
		t.Fatalf("admin must manage reminder settings")
	}
	if HasScope(RoleClinicAdmin, ScopeClinicsReminders) {
		t.Fatalf("clinic admin must not flip the system kill switch")
	}
	if HasScope(RoleStaff, ScopeUsersManage) {
		t.Fatalf("staff must not manage users")
	}
	if HasScope(RoleStaff, ScopeOwnersDelete) {
		t.Fatalf("staff must not delete owners")
	}
}

func TestFromClaims(t *testing.T) {
	if _, err := FromClaims(auth.Claims{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := FromClaims(auth.Claims{UserID: "u1", Role: "STAFF"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("staff without clinic must be forbidden, got %v", err)
	}
	p, err := FromClaims(auth.Claims{UserID: "u1", Role: "ADMIN"})
	if err != nil || !p.IsAdmin() {
		t.Fatalf("admin without clinic must be valid, got %v", err)
	}
}

func TestResolveClinic(t *testing.T) {
	staff := Principal{UserID: "u1", Role: RoleStaff, ClinicID: "c1"}

	id, err := staff.ResolveClinic("")
	if err != nil || id != "c1" {
		t.Fatalf("staff default clinic: got %q err=%v", id, err)
	}
	if _, err := staff.ResolveClinic("c2"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("staff asking another clinic must be forbidden, got %v", err)
	}

	admin := Principal{UserID: "a1", Role: RoleAdmin}
	id, err = admin.ResolveClinic("")
	if err != nil || id != "" {
		t.Fatalf("admin listing all: got %q err=%v", id, err)
	}
	if _, err := admin.RequireClinic(""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("admin create without clinic must be invalid, got %v", err)
	}
	if !admin.CanAccessClinic("c9") || staff.CanAccessClinic("c9") {
		t.Fatalf("CanAccessClinic mismatch")
	}
}

func TestRequire_NoClaims(t *testing.T) {
	if _, err := Require(context.Background(), ScopeOwnersWrite); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
