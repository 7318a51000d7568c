package auth

import (
	"errors"
	"testing"
	"time"
)

func testGate(t *testing.T) (*Gate, *Signer) {
	t.Helper()
	signer, err := NewSigner([]byte("secret-key"), "HS256", 5*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewSigner error: %v", err)
	}
	return NewGate(signer), signer
}

func TestAuthorizeAccessToken(t *testing.T) {
	gate, signer := testGate(t)

	tok, _, err := signer.Issue("mario@email.com", "mariorossi", []Role{RoleUser}, AccessToken)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	d := gate.Authorize(tok)
	if !d.Authenticated() {
		t.Fatalf("expected authenticated, got reason %v", d.Reason())
	}
	if d.Claims() == nil || d.Claims().Username != "mariorossi" {
		t.Fatalf("unexpected claims: %+v", d.Claims())
	}
	if d.Claims().Refresh {
		t.Fatalf("authorized claims flagged as refresh")
	}
}

func TestAuthorizeRejectsGarbage(t *testing.T) {
	gate, _ := testGate(t)

	d := gate.Authorize("not-a-token")
	if d.Authenticated() {
		t.Fatalf("garbage token authenticated")
	}
	if !errors.Is(d.Reason(), ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", d.Reason())
	}
	if d.Claims() != nil {
		t.Fatalf("no claims should be attached when decode fails")
	}
}

func TestAuthorizeRejectsRefreshToken(t *testing.T) {
	gate, signer := testGate(t)

	tok, _, err := signer.Issue("mario@email.com", "mariorossi", []Role{RoleUser}, RefreshToken)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	d := gate.Authorize(tok)
	if d.Authenticated() {
		t.Fatalf("refresh token must not authorize requests")
	}
	if !errors.Is(d.Reason(), ErrWrongTokenClass) {
		t.Fatalf("expected ErrWrongTokenClass, got %v", d.Reason())
	}
	// Claims stay attached for diagnostics even though the token was
	// rejected.
	if d.Claims() == nil || d.Claims().Username != "mariorossi" {
		t.Fatalf("expected diagnostic claims, got %+v", d.Claims())
	}
}

func TestAuthorizeAdminNonAdminUser(t *testing.T) {
	gate, signer := testGate(t)

	tok, _, err := signer.Issue("mario@email.com", "mariorossi", []Role{RoleUser}, AccessToken)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	d := gate.AuthorizeAdmin(tok)
	if !d.Authenticated() {
		t.Fatalf("expected authenticated, got %v", d.Reason())
	}
	if d.Privileged() {
		t.Fatalf("plain user must not be privileged")
	}
}

func TestAuthorizeAdminAdminUser(t *testing.T) {
	gate, signer := testGate(t)

	tok, _, err := signer.Issue("admin@email.com", "admin", []Role{RoleAdmin}, AccessToken)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	d := gate.AuthorizeAdmin(tok)
	if !d.Authenticated() || !d.Privileged() {
		t.Fatalf("expected privileged admin decision, got %+v", d)
	}
}

func TestRequireAdmin(t *testing.T) {
	gate, signer := testGate(t)

	adminTok, _, err := signer.Issue("admin@email.com", "admin", []Role{RoleAdmin}, AccessToken)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	userTok, _, err := signer.Issue("mario@email.com", "mariorossi", []Role{RoleUser}, AccessToken)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if err := gate.RequireAdmin(adminTok); err != nil {
		t.Fatalf("RequireAdmin(admin) = %v", err)
	}
	if err := gate.RequireAdmin(userTok); !errors.Is(err, ErrForbidden) {
		t.Fatalf("RequireAdmin(user) = %v, want ErrForbidden", err)
	}
	if err := gate.RequireAdmin("broken"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("RequireAdmin(broken) = %v, want ErrUnauthorized", err)
	}
}
