package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"project-users/internal/audit"
	"project-users/internal/auth"
	"project-users/internal/config"
)

type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	signer *auth.Signer
	gate   *auth.Gate
	users  auth.UserStore
	logger *log.Logger
	audit  *audit.Log

	rlLoginIP *keyedLimiter
	rlLoginID *keyedLimiter
}

// New connects the Mongo-backed user store and builds the server around it.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	users, err := auth.NewMongoUserStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	if err != nil {
		return nil, err
	}
	return NewWithStore(ctx, cfg, users, logger)
}

// NewWithStore builds the server on a caller-supplied store. Tests and the
// dev path use it with the in-memory store.
func NewWithStore(ctx context.Context, cfg *config.Config, users auth.UserStore, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	signer, err := auth.NewSigner(
		[]byte(cfg.Auth.SecretKey),
		cfg.Auth.Algorithm,
		cfg.Auth.AccessTTL.Duration,
		cfg.Auth.RefreshTTL.Duration,
	)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		signer: signer,
		gate:   auth.NewGate(signer),
		users:  users,
		logger: logger,
		audit:  audit.New(),
	}

	perWindow := func(n int, window time.Duration) rate.Limit {
		return rate.Limit(float64(n) / window.Seconds())
	}
	s.rlLoginIP = newKeyedLimiter(perWindow(10, time.Minute), 10, time.Hour)
	s.rlLoginID = newKeyedLimiter(perWindow(5, time.Minute), 5, time.Hour)

	if err := s.ensureSeedUsers(ctx); err != nil {
		return nil, err
	}

	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("panic: %v", rec)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	s.addDefaultHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if s.isPublic(r.URL.Path) {
		s.mux.ServeHTTP(w, r)
		return
	}
	auth.Authorized(s.gate)(s.mux).ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler { return s }

func (s *Server) isPublic(path string) bool {
	switch path {
	case "/", "/health", "/user/register", "/user/login", "/user/refresh":
		return true
	default:
		return false
	}
}

func (s *Server) addDefaultHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	if strings.HasPrefix(r.URL.Path, "/user/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
}

func (s *Server) ensureSeedUsers(ctx context.Context) error {
	for _, seed := range s.cfg.Seed {
		if strings.TrimSpace(seed.Username) == "" || strings.TrimSpace(seed.Password) == "" {
			continue
		}
		if _, err := s.users.FindByUsername(seed.Username); err == nil {
			continue
		}
		roles, err := auth.ParseRoles(seed.Roles)
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			roles = []auth.Role{auth.RoleUser}
		}
		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			return err
		}
		user := &auth.User{
			Username: seed.Username,
			Email:    strings.TrimSpace(strings.ToLower(seed.Email)),
			PassHash: hash,
			Roles:    roles,
		}
		if err := s.users.Add(user); err != nil {
			return err
		}
		s.logger.Printf("seeded user %s (%s)", seed.Username, strings.Join(auth.RoleNames(roles), ","))
	}
	return nil
}
