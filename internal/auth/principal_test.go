package auth

import (
	"errors"
	"testing"
)

func TestResolveEffectiveOrg(t *testing.T) {
	regular := &JWTCustomClaims{OrganizationID: 5}
	admin := &JWTCustomClaims{OrganizationID: 1, IsPlatformAdmin: true}

	t.Run("no override keeps own org", func(t *testing.T) {
		org, err := ResolveEffectiveOrg(regular, "")
		if err != nil || org != 5 {
			t.Fatalf("got org %d, err %v", org, err)
		}
	})

	t.Run("regular user cannot override", func(t *testing.T) {
		_, err := ResolveEffectiveOrg(regular, "9")
		if !errors.Is(err, ErrOverrideNotAllowed) {
			t.Fatalf("expected ErrOverrideNotAllowed, got %v", err)
		}
	})

	t.Run("platform admin acts for another org", func(t *testing.T) {
		org, err := ResolveEffectiveOrg(admin, "9")
		if err != nil || org != 9 {
			t.Fatalf("got org %d, err %v", org, err)
		}
	})

	t.Run("garbage override is rejected", func(t *testing.T) {
		if _, err := ResolveEffectiveOrg(admin, "not-a-number"); err == nil {
			t.Fatal("expected error")
		}
		if _, err := ResolveEffectiveOrg(admin, "0"); err == nil {
			t.Fatal("expected error for org id 0")
		}
	})
}
