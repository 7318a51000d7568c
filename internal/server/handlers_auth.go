package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"project-users/internal/auth"
)

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRolesReq struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type messageResp struct {
	Message string `json:"message"`
}

type loginReq struct {
	Username   string `json:"username"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResp struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleRegister creates a plain account. The role is always "user"; anyone
// needing more goes through the admin-gated register-roles endpoint.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}
	if req.Email == "" || !isValidEmail(req.Email) {
		http.Error(w, "valid email required", http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		http.Error(w, "password required", http.StatusBadRequest)
		return
	}

	s.createUser(w, req.Username, req.Username, req.Email, req.Password, []auth.Role{auth.RoleUser})
}

// handleRegisterRoles lets an admin create an account with explicit roles.
func (s *Server) handleRegisterRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, _ := auth.BearerToken(r)
	switch err := s.gate.RequireAdmin(token); {
	case errors.Is(err, auth.ErrUnauthorized):
		http.Error(w, "not authorized", http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	var req registerRolesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" || req.Email == "" || !isValidEmail(req.Email) || req.Password == "" {
		http.Error(w, "username, valid email and password required", http.StatusBadRequest)
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

	actor := req.Username
	if d := auth.DecisionFrom(r.Context()); d.Claims() != nil {
		actor = d.Claims().Username
	}
	s.createUser(w, actor, req.Username, req.Email, req.Password, roles)
}

func (s *Server) createUser(w http.ResponseWriter, actor, username, email, password string, roles []auth.Role) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Printf("hash password for %s: %v", username, err)
		http.Error(w, "hash password failed", http.StatusInternalServerError)
		return
	}

	user := &auth.User{
		Username: username,
		Email:    email,
		PassHash: hash,
		Roles:    roles,
	}
	switch err := s.users.Add(user); {
	case errors.Is(err, auth.ErrDuplicateUser):
		http.Error(w, "username or email already exists", http.StatusConflict)
		return
	case err != nil:
		s.logger.Printf("insert user %s: %v", username, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	s.logger.Printf("registered user %s roles=%s", username, strings.Join(auth.RoleNames(roles), ","))
	s.audit.Record(actor, "register", username)
	writeJSONStatus(w, http.StatusCreated, messageResp{Message: "OK"})
}

// handleLogin verifies credentials and issues one access and one refresh
// token. Failures are uniform "invalid credentials" so the endpoint leaks
// nothing about which half was wrong.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.rlLoginIP.allow(clientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		http.Error(w, "identifier required", http.StatusBadRequest)
		return
	}
	if !s.rlLoginID.allow(strings.ToLower(identifier)) {
		tooMany(w, 60)
		return
	}

	user, err := s.users.FindByUsername(identifier)
	if err != nil {
		user, err = s.users.FindByEmail(identifier)
	}
	if err != nil || !auth.VerifyPassword(req.Password, user.PassHash) {
		s.audit.Record(identifier, "login_denied", "")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	access, exp, err := s.signer.Issue(user.Email, user.Username, user.Roles, auth.AccessToken)
	if err != nil {
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}
	refresh, _, err := s.signer.Issue(user.Email, user.Username, user.Roles, auth.RefreshToken)
	if err != nil {
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}

	s.logger.Printf("login ok for %s", user.Username)
	s.audit.Record(user.Username, "login", "")
	writeJSON(w, loginResp{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    exp,
	})
}

// handleRefresh exchanges a valid refresh token for a fresh access token.
// Access tokens are refused here; refresh tokens are refused everywhere
// else.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req refreshReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	m, err := s.signer.Decode(req.RefreshToken)
	if err != nil || !auth.ValidRefresh(m) {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}
	claims := auth.ClaimsFromMap(m)

	access, exp, err := s.signer.Issue(claims.Email, claims.Username, claims.Roles, auth.AccessToken)
	if err != nil {
		http.Error(w, "token issue failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, refreshResp{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresAt:   exp,
	})
}
