package auth

import (
	"errors"
	"testing"
)

func addUser(t *testing.T, s *MemoryUserStore, username, email string, roles ...Role) {
	t.Helper()
	if err := s.Add(&User{
		Username: username,
		Email:    email,
		PassHash: "x",
		Roles:    roles,
	}); err != nil {
		t.Fatalf("Add(%s) error: %v", username, err)
	}
}

func TestMemoryStoreDuplicates(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "alice", "alice@email.com", RoleUser)

	err := s.Add(&User{Username: "alice", Email: "other@email.com"})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate username: got %v", err)
	}
	err = s.Add(&User{Username: "bob", Email: "Alice@Email.com"})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("duplicate email (case-insensitive): got %v", err)
	}
}

func TestMemoryStoreFind(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "alice", "alice@email.com", RoleUser)

	if _, err := s.FindByUsername("alice"); err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if _, err := s.FindByEmail("ALICE@email.com"); err != nil {
		t.Fatalf("FindByEmail should normalize case: %v", err)
	}
	if _, err := s.FindByUsername("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryStoreListOrderLimitSkip(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "charlie", "c@email.com", RoleUser)
	addUser(t, s, "alice", "a@email.com", RoleUser)
	addUser(t, s, "bob", "b@email.com", RoleUser)

	all, err := s.List(0, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 3 || all[0].Username != "alice" || all[2].Username != "charlie" {
		t.Fatalf("list not sorted by username: %v", usernames(all))
	}

	page, err := s.List(1, 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(page) != 1 || page[0].Username != "bob" {
		t.Fatalf("limit/skip wrong: %v", usernames(page))
	}

	empty, err := s.List(0, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("skip past the end should be empty, got %v", usernames(empty))
	}
}

func usernames(us []*User) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Username
	}
	return out
}

func TestMemoryStoreCounting(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "admin", "admin@email.com", RoleAdmin)
	addUser(t, s, "alice", "a@email.com", RoleUser)
	addUser(t, s, "root", "root@email.com", RoleAdmin, RoleUser)

	if n, _ := s.Count(); n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
	if n, _ := s.CountWithRole(RoleAdmin); n != 2 {
		t.Fatalf("CountWithRole(admin) = %d, want 2", n)
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "alice", "a@email.com", RoleUser)
	addUser(t, s, "bob", "b@email.com", RoleUser)

	err := s.Update("alice", UserUpdate{Username: "alice2", Email: "a2@email.com", Roles: []Role{RoleAdmin}})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	u, err := s.FindByUsername("alice2")
	if err != nil {
		t.Fatalf("renamed user not found: %v", err)
	}
	if u.Email != "a2@email.com" || len(u.Roles) != 1 || u.Roles[0] != RoleAdmin {
		t.Fatalf("update not applied: %+v", u)
	}
	if u.LastUpdate.Before(u.Creation) {
		t.Fatalf("last update not bumped")
	}
	if _, err := s.FindByUsername("alice"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("old username still resolvable")
	}

	// Renaming onto an existing username or email must fail.
	if err := s.Update("alice2", UserUpdate{Username: "bob", Email: "a2@email.com", Roles: []Role{RoleUser}}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("rename onto bob: got %v", err)
	}
	if err := s.Update("alice2", UserUpdate{Username: "alice2", Email: "b@email.com", Roles: []Role{RoleUser}}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("email takeover: got %v", err)
	}
	if err := s.Update("nobody", UserUpdate{Username: "nobody", Email: "n@email.com", Roles: []Role{RoleUser}}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("update missing user: got %v", err)
	}
}

func TestMemoryStoreUpdatePassword(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "alice", "a@email.com", RoleUser)

	if err := s.UpdatePassword("alice", "new-hash"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	u, err := s.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if u.PassHash != "new-hash" {
		t.Fatalf("hash not updated: %q", u.PassHash)
	}
	if u.LastUpdate.Before(u.Creation) {
		t.Fatalf("last_update not bumped")
	}
	if err := s.UpdatePassword("nobody", "h"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryUserStore()
	addUser(t, s, "alice", "a@email.com", RoleUser)

	if err := s.Delete("alice"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.FindByUsername("alice"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user still present")
	}
	if err := s.Delete("alice"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
}
