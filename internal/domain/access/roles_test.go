package access

import (
	"errors"
	"testing"
)

func mustRoles(t *testing.T) Roles {
	t.Helper()
	roles, err := NewRoles("owner", "oracle", "fees", 1000)
	if err != nil {
		t.Fatalf("new roles: %v", err)
	}
	return roles
}

func TestNewRoles_RejectsZeroAddresses(t *testing.T) {
	if _, err := NewRoles(ZeroAddress, "oracle", "fees", 0); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress for owner, got %v", err)
	}
	if _, err := NewRoles("owner", "  ", "fees", 0); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress for oracle, got %v", err)
	}
	if _, err := NewRoles("owner", "oracle", ZeroAddress, 0); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress for fee address, got %v", err)
	}
}

func TestNewRoles_RejectsFeeRateAboveScale(t *testing.T) {
	if _, err := NewRoles("owner", "oracle", "fees", BasisPoints+1); !errors.Is(err, ErrInvalidFeeRate) {
		t.Fatalf("expected ErrInvalidFeeRate, got %v", err)
	}
}

func TestRoles_RoleChecksRejectZeroCaller(t *testing.T) {
	roles := mustRoles(t)

	if roles.IsOwner(ZeroAddress) || roles.IsOracle(ZeroAddress) || roles.IsActiveAdmin(ZeroAddress) {
		t.Fatal("zero address must never pass a role check")
	}
	if !roles.IsOwner("owner") {
		t.Fatal("expected owner check to pass")
	}
	if !roles.IsOracle("oracle") {
		t.Fatal("expected oracle check to pass")
	}
}

func TestRoles_WithOwnerRejectsZero(t *testing.T) {
	roles := mustRoles(t)
	if _, err := roles.WithOwner(ZeroAddress); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
}

func TestRoles_AdminRosterZeroedNotCompacted(t *testing.T) {
	roles := mustRoles(t)

	roles, err := roles.WithAdmin("alice")
	if err != nil {
		t.Fatalf("grant alice: %v", err)
	}
	roles, err = roles.WithAdmin("bob")
	if err != nil {
		t.Fatalf("grant bob: %v", err)
	}
	roles, err = roles.WithoutAdmin("alice")
	if err != nil {
		t.Fatalf("revoke alice: %v", err)
	}

	roster := roles.AdminRoster()
	if len(roster) != 2 {
		t.Fatalf("expected roster to keep both slots, got %d", len(roster))
	}
	if !roster[0].IsZero() {
		t.Fatalf("expected first slot zeroed, got %q", roster[0])
	}
	if roster[1] != "bob" {
		t.Fatalf("expected second slot bob, got %q", roster[1])
	}

	active := roles.ActiveAdmins()
	if len(active) != 1 || active[0] != "bob" {
		t.Fatalf("expected active admins [bob], got %v", active)
	}
	if roles.IsActiveAdmin("alice") {
		t.Fatal("revoked admin must not stay active")
	}
}

func TestRoles_RegrantAppendsFreshSlot(t *testing.T) {
	roles := mustRoles(t)

	roles, _ = roles.WithAdmin("alice")
	roles, _ = roles.WithoutAdmin("alice")
	roles, _ = roles.WithAdmin("alice")

	roster := roles.AdminRoster()
	if len(roster) != 2 {
		t.Fatalf("expected two roster slots after re-grant, got %d", len(roster))
	}
	if !roster[0].IsZero() || roster[1] != "alice" {
		t.Fatalf("unexpected roster after re-grant: %v", roster)
	}
	if !roles.IsActiveAdmin("alice") {
		t.Fatal("re-granted admin must be active")
	}
}

func TestRoles_MutationsDoNotAliasOriginal(t *testing.T) {
	roles := mustRoles(t)
	withAlice, _ := roles.WithAdmin("alice")

	if roles.IsActiveAdmin("alice") {
		t.Fatal("original roles must not see the new admin")
	}
	if !withAlice.IsActiveAdmin("alice") {
		t.Fatal("derived roles must see the new admin")
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  0xABCdef  "); got != "0xabcdef" {
		t.Fatalf("unexpected normalized address: %q", got)
	}
}
