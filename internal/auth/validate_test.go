package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestWellFormedAcceptsEmptyValues(t *testing.T) {
	// Presence-only contract: all-empty string values still count.
	m := jwt.MapClaims{
		"email":      "",
		"username":   "",
		"roles":      "",
		"exp":        "",
		"is_refresh": true,
	}
	if !WellFormed(m) {
		t.Fatalf("expected all-empty payload to be well formed")
	}
}

func TestWellFormedMissingField(t *testing.T) {
	for _, missing := range []string{"email", "username", "roles", "exp", "is_refresh"} {
		m := jwt.MapClaims{
			"email":      "a@b.com",
			"username":   "alice",
			"roles":      []string{"user"},
			"exp":        float64(123),
			"is_refresh": false,
		}
		delete(m, missing)
		if WellFormed(m) {
			t.Fatalf("payload without %q should not be well formed", missing)
		}
	}
}

func TestAccessRefreshDiscrimination(t *testing.T) {
	access := jwt.MapClaims{
		"email":      "",
		"username":   "",
		"roles":      "",
		"exp":        "",
		"is_refresh": false,
	}
	refresh := jwt.MapClaims{
		"email":      "",
		"username":   "",
		"roles":      "",
		"exp":        "",
		"is_refresh": true,
	}

	if !ValidAccess(access) || ValidRefresh(access) {
		t.Fatalf("access payload misclassified")
	}
	if !ValidRefresh(refresh) || ValidAccess(refresh) {
		t.Fatalf("refresh payload misclassified")
	}
}
