package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"project-users/internal/auth"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Auth   AuthConfig   `yaml:"auth"`
	Seed   []SeedUser   `yaml:"seed_users"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type AuthConfig struct {
	SecretKey  string   `yaml:"secret_key"`
	Algorithm  string   `yaml:"algorithm"`
	AccessTTL  Duration `yaml:"access_token_ttl"`
	RefreshTTL Duration `yaml:"refresh_token_ttl"`
}

// SeedUser is an account created at startup when missing. Deployments use
// this to provision the first admin.
type SeedUser struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// Duration lets YAML carry values like "30m" or "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Load reads an optional YAML file, applies defaults and then environment
// overrides. An empty path skips the file and configures from defaults and
// environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "users"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "users"
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = "HS256"
	}
	if c.Auth.AccessTTL.Duration == 0 {
		c.Auth.AccessTTL.Duration = 30 * time.Minute
	}
	if c.Auth.RefreshTTL.Duration == 0 {
		c.Auth.RefreshTTL.Duration = 7 * 24 * time.Hour
	}
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("USERD_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("USERD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if uri := os.Getenv("USERD_MONGO_URI"); uri != "" {
		c.Mongo.URI = uri
	}
	if db := os.Getenv("USERD_MONGO_DB"); db != "" {
		c.Mongo.Database = db
	}
	if coll := os.Getenv("USERD_MONGO_COLLECTION"); coll != "" {
		c.Mongo.Collection = coll
	}
	if key := os.Getenv("SECRET_KEY"); key != "" {
		c.Auth.SecretKey = key
	}
	if alg := os.Getenv("USERD_JWT_ALGORITHM"); alg != "" {
		c.Auth.Algorithm = alg
	}
	if ttl := os.Getenv("USERD_ACCESS_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Auth.AccessTTL.Duration = d
		}
	}
	if ttl := os.Getenv("USERD_REFRESH_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Auth.RefreshTTL.Duration = d
		}
	}
}

// Validate checks the fields a running server cannot do without.
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return errors.New("config: secret key required (SECRET_KEY)")
	}
	for _, seed := range c.Seed {
		if _, err := auth.ParseRoles(seed.Roles); err != nil {
			return fmt.Errorf("config: seed user %q: %w", seed.Username, err)
		}
	}
	return nil
}

// ListenAddr is the host:port the HTTP server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
