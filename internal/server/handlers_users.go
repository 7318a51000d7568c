package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"project-users/internal/auth"
)

// userPartial is the projection returned to non-admin callers.
type userPartial struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// userDetails is the full projection: admins listing users, and every user
// looking at themselves.
type userDetails struct {
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Roles      []string  `json:"roles"`
	Creation   time.Time `json:"creation"`
	LastUpdate time.Time `json:"last_update"`
}

type updateUserReq struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func toPartial(u *auth.User) userPartial {
	return userPartial{Username: u.Username, Roles: auth.RoleNames(u.Roles)}
}

func toDetails(u *auth.User) userDetails {
	return userDetails{
		Email:      u.Email,
		Username:   u.Username,
		Roles:      auth.RoleNames(u.Roles),
		Creation:   u.Creation,
		LastUpdate: u.LastUpdate,
	}
}

// handleUsers lists users sorted by username. The caller's privilege only
// changes the projection, never the visibility of the list itself.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d := auth.DecisionFrom(r.Context())
	if !d.Authenticated() {
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}

	limit := queryInt64(r, "limit", 0)
	skip := queryInt64(r, "skip", 0)

	users, err := s.users.List(limit, skip)
	if err != nil {
		s.logger.Printf("list users: %v", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	if d.Privileged() {
		out := make([]userDetails, 0, len(users))
		for _, u := range users {
			out = append(out, toDetails(u))
		}
		writeJSON(w, out)
		return
	}
	out := make([]userPartial, 0, len(users))
	for _, u := range users {
		out = append(out, toPartial(u))
	}
	writeJSON(w, out)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d := auth.DecisionFrom(r.Context())
	if !d.Authenticated() {
		http.Error(w, "the provided token may be expired or invalid", http.StatusUnauthorized)
		return
	}

	n, err := s.users.Count()
	if err != nil {
		s.logger.Printf("count users: %v", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, n)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d := auth.DecisionFrom(r.Context())
	if !d.Authenticated() {
		http.Error(w, "the provided token may be expired or invalid", http.StatusUnauthorized)
		return
	}

	user, err := s.users.FindByUsername(d.Claims().Username)
	if errors.Is(err, auth.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Printf("find current user: %v", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, toDetails(user))
}

func (s *Server) handleUserByUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimPrefix(r.URL.Path, "/user/username/")
	if username == "" || strings.Contains(username, "/") {
		http.NotFound(w, r)
		return
	}

	d := auth.DecisionFrom(r.Context())
	if !d.Authenticated() {
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getUser(w, d, username)
	case http.MethodPut:
		s.updateUser(w, r, d, username)
	case http.MethodDelete:
		s.deleteUser(w, d, username)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) getUser(w http.ResponseWriter, d auth.Decision, username string) {
	user, err := s.users.FindByUsername(username)
	if errors.Is(err, auth.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Printf("find user %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if d.Privileged() {
		writeJSON(w, toDetails(user))
		return
	}
	writeJSON(w, toPartial(user))
}

// updateUser applies an admin edit, or a self edit for non-admins. Only
// admins may touch other accounts.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, d auth.Decision, username string) {
	if !d.Privileged() && username != d.Claims().Username {
		s.logger.Printf("user %s denied update of %s", d.Claims().Username, username)
		http.Error(w, "cannot update a different user", http.StatusForbidden)
		return
	}

	var req updateUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || !isValidEmail(req.Email) {
		http.Error(w, "username and valid email required", http.StatusBadRequest)
		return
	}
	if len(req.Roles) == 0 {
		http.Error(w, "at least one role required", http.StatusUnprocessableEntity)
		return
	}
	roles, err := auth.ParseRoles(req.Roles)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	upd := auth.UserUpdate{Email: req.Email, Username: req.Username, Roles: roles}
	switch err := s.users.Update(username, upd); {
	case errors.Is(err, auth.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
		return
	case errors.Is(err, auth.ErrDuplicateUser):
		http.Error(w, "username or email already in use", http.StatusConflict)
		return
	case err != nil:
		s.logger.Printf("update user %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	s.logger.Printf("updated user %s", username)
	s.audit.Record(d.Claims().Username, "update_user", username)
	writeJSON(w, messageResp{Message: "OK"})
}

// deleteUser removes an account, refusing to delete the last admin so the
// system can never lock itself out of privileged operations.
func (s *Server) deleteUser(w http.ResponseWriter, d auth.Decision, username string) {
	if !d.Privileged() && username != d.Claims().Username {
		s.logger.Printf("user %s denied deletion of %s", d.Claims().Username, username)
		http.Error(w, "cannot delete a different user", http.StatusForbidden)
		return
	}

	user, err := s.users.FindByUsername(username)
	if errors.Is(err, auth.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Printf("find user %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	if auth.HasRequiredRoles(user.Roles, []auth.Role{auth.RoleAdmin}) {
		admins, err := s.users.CountWithRole(auth.RoleAdmin)
		if err != nil {
			s.logger.Printf("count admins: %v", err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		if admins == 1 {
			http.Error(w, "cannot delete the last admin user", http.StatusNotAcceptable)
			return
		}
	}

	if err := s.users.Delete(username); err != nil {
		s.logger.Printf("delete user %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	s.logger.Printf("deleted user %s", username)
	s.audit.Record(d.Claims().Username, "delete_user", username)
	writeJSON(w, messageResp{Message: "OK"})
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleChangePassword lets the caller rotate their own password. The
// current password must verify first, so a stolen access token alone is not
// enough to take over the account.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d := auth.DecisionFrom(r.Context())
	if !d.Authenticated() {
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}

	var req changePasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.NewPassword == "" {
		http.Error(w, "new password required", http.StatusBadRequest)
		return
	}

	username := d.Claims().Username
	user, err := s.users.FindByUsername(username)
	if errors.Is(err, auth.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Printf("find user %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !auth.VerifyPassword(req.CurrentPassword, user.PassHash) {
		http.Error(w, "current password incorrect", http.StatusUnauthorized)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Printf("hash password for %s: %v", username, err)
		http.Error(w, "hash password failed", http.StatusInternalServerError)
		return
	}
	if err := s.users.UpdatePassword(username, hash); err != nil {
		s.logger.Printf("update password for %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	s.logger.Printf("password changed for %s", username)
	s.audit.Record(username, "change_password", "")
	writeJSON(w, messageResp{Message: "OK"})
}

// handleAudit exposes the security event trail to admins.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d := auth.DecisionFrom(r.Context())
	if !d.Authenticated() {
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	}
	if !d.Privileged() {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	if err := s.audit.Verify(); err != nil {
		s.logger.Printf("audit verify: %v", err)
		http.Error(w, "audit log corrupted", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.audit.Entries())
}
