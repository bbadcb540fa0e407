package domain

import (
	"testing"
	"time"
)

func TestIsActiveAdmin(t *testing.T) {
	now := time.Now().UTC()
	user := User{Role: RoleAdmin, Status: StatusActive}
	if !user.IsActiveAdmin() {
		t.Fatalf("expected active admin to qualify")
	}

	suspended := user
	suspended.Status = StatusSuspended
	if suspended.IsActiveAdmin() {
		t.Fatalf("suspended admin must not qualify")
	}

	manager := user
	manager.Role = RoleManager
	if manager.IsActiveAdmin() {
		t.Fatalf("non-admin must not qualify")
	}

	deleted := user
	deleted.DeletedAt = &now
	if deleted.IsActiveAdmin() {
		t.Fatalf("soft-deleted admin must not qualify")
	}
}

func TestRoleAndStatusValidity(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleManager, RoleMember} {
		if !role.Valid() {
			t.Fatalf("expected %q to be valid", role)
		}
	}
	if Role("root").Valid() {
		t.Fatalf("unknown role must be invalid")
	}
	if Status("banned").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}
