package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d", cfg.Server.Port)
	}
	if cfg.Auth.Algorithm != "HS256" {
		t.Fatalf("default algorithm = %q", cfg.Auth.Algorithm)
	}
	if cfg.Auth.AccessTTL.Duration != 30*time.Minute {
		t.Fatalf("default access ttl = %v", cfg.Auth.AccessTTL.Duration)
	}
	if cfg.Auth.RefreshTTL.Duration != 7*24*time.Hour {
		t.Fatalf("default refresh ttl = %v", cfg.Auth.RefreshTTL.Duration)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  host: 127.0.0.1
  port: 9090
mongo:
  uri: mongodb://localhost:27017
  database: testdb
auth:
  secret_key: file-secret
  access_token_ttl: 5m
seed_users:
  - username: admin
    email: admin@email.com
    password: admin-pwd
    roles: [admin]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Fatalf("server config wrong: %+v", cfg.Server)
	}
	if cfg.Mongo.Database != "testdb" {
		t.Fatalf("mongo config wrong: %+v", cfg.Mongo)
	}
	if cfg.Auth.AccessTTL.Duration != 5*time.Minute {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTTL.Duration)
	}
	if len(cfg.Seed) != 1 || cfg.Seed[0].Username != "admin" {
		t.Fatalf("seed users wrong: %+v", cfg.Seed)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if addr := cfg.ListenAddr(); addr != "127.0.0.1:9090" {
		t.Fatalf("ListenAddr = %q", addr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("USERD_PORT", "9999")
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("USERD_ACCESS_TOKEN_TTL", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("env port not applied: %d", cfg.Server.Port)
	}
	if cfg.Auth.SecretKey != "env-secret" {
		t.Fatalf("env secret not applied")
	}
	if cfg.Auth.AccessTTL.Duration != time.Minute {
		t.Fatalf("env ttl not applied: %v", cfg.Auth.AccessTTL.Duration)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cfg.Auth.SecretKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing secret")
	}

	cfg.Auth.SecretKey = "x"
	cfg.Seed = []SeedUser{{Username: "a", Password: "b", Roles: []string{"root"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown seed role")
	}
}
