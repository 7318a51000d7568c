package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/user/register", s.handleRegister)
	s.mux.HandleFunc("/user/register-roles", s.handleRegisterRoles)
	s.mux.HandleFunc("/user/login", s.handleLogin)
	s.mux.HandleFunc("/user/refresh", s.handleRefresh)

	s.mux.HandleFunc("/user/all", s.handleUsers)
	s.mux.HandleFunc("/user/count", s.handleCount)
	s.mux.HandleFunc("/user/me", s.handleMe)
	s.mux.HandleFunc("/user/password", s.handleChangePassword)
	s.mux.HandleFunc("/user/audit", s.handleAudit)
	s.mux.HandleFunc("/user/username/", s.handleUserByUsername)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{"message": "Hello, world!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
