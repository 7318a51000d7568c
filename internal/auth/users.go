package auth

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// User is the stored account document. PassHash is a bcrypt digest; the
// plaintext never touches storage.
type User struct {
	Email      string
	Username   string
	PassHash   string
	Roles      []Role
	Creation   time.Time
	LastUpdate time.Time
}

// UserUpdate carries the mutable fields of an update request.
type UserUpdate struct {
	Email    string
	Username string
	Roles    []Role
}

// UserStore abstracts the user collection. Implementations must keep
// username and email unique and surface violations as ErrDuplicateUser.
type UserStore interface {
	Add(u *User) error
	FindByUsername(username string) (*User, error)
	FindByEmail(email string) (*User, error)
	List(limit, skip int64) ([]*User, error)
	Count() (int64, error)
	CountWithRole(role Role) (int64, error)
	Update(username string, upd UserUpdate) error
	UpdatePassword(username, newHash string) error
	Delete(username string) error
}

// MemoryUserStore is the in-process implementation, used by tests and the
// dev server path.
type MemoryUserStore struct {
	mu         sync.RWMutex
	byUsername map[string]*User
	byEmail    map[string]*User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byUsername: map[string]*User{},
		byEmail:    map[string]*User{},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryUserStore) Add(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, exists := s.byUsername[u.Username]; exists {
		return ErrDuplicateUser
	}
	if email != "" {
		if _, exists := s.byEmail[email]; exists {
			return ErrDuplicateUser
		}
	}
	clone := *u
	clone.Email = email
	if clone.Creation.IsZero() {
		clone.Creation = time.Now().UTC()
		clone.LastUpdate = clone.Creation
	}
	s.byUsername[clone.Username] = &clone
	if email != "" {
		s.byEmail[email] = &clone
	}
	return nil
}

func (s *MemoryUserStore) FindByUsername(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byUsername[username]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) FindByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byEmail[normalizeEmail(email)]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}

// List returns users sorted ascending by username. limit<=0 means no limit.
func (s *MemoryUserStore) List(limit, skip int64) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*User, 0, len(s.byUsername))
	for _, u := range s.byUsername {
		clone := *u
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	if skip > 0 {
		if skip >= int64(len(all)) {
			return nil, nil
		}
		all = all[skip:]
	}
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryUserStore) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byUsername)), nil
}

func (s *MemoryUserStore) CountWithRole(role Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.byUsername {
		if HasRequiredRoles(u.Roles, []Role{role}) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryUserStore) Update(username string, upd UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byUsername[username]
	if !ok {
		return ErrUserNotFound
	}

	email := normalizeEmail(upd.Email)
	if other, exists := s.byEmail[email]; exists && other != u {
		return ErrDuplicateUser
	}
	if upd.Username != username {
		if _, exists := s.byUsername[upd.Username]; exists {
			return ErrDuplicateUser
		}
	}

	delete(s.byUsername, u.Username)
	delete(s.byEmail, u.Email)

	u.Username = upd.Username
	u.Email = email
	u.Roles = upd.Roles
	u.LastUpdate = time.Now().UTC()

	s.byUsername[u.Username] = u
	if email != "" {
		s.byEmail[email] = u
	}
	return nil
}

func (s *MemoryUserStore) UpdatePassword(username, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byUsername[username]
	if !ok {
		return ErrUserNotFound
	}
	u.PassHash = newHash
	u.LastUpdate = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byUsername[username]
	if !ok {
		return ErrUserNotFound
	}
	delete(s.byUsername, u.Username)
	delete(s.byEmail, u.Email)
	return nil
}
