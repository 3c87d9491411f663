// Package config handles configuration for the server component, including
// defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for the dashvault server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - SessionSecret: HMAC secret for signing session tokens. Mandatory.
//   - SessionTTL: lifetime of issued session tokens.
//   - GitBaseURL / GitToken / GitOwner / GitRepo / GitBranch: the revisioned
//     file backend holding every document. Token, owner and repo are mandatory.
//   - DashboardDir / UsersPath: document layout inside the repository.
//   - BackendTimeout: per-call bound on backend requests.
//   - AdminUser / AdminPassword: optional bootstrap admin credentials.
//   - SecureCookies: set the Secure attribute on session cookies.
type Config struct {
	EndpointAddr   string
	SessionSecret  string
	SessionTTL     time.Duration
	GitBaseURL     string
	GitToken       string
	GitOwner       string
	GitRepo        string
	GitBranch      string
	DashboardDir   string
	UsersPath      string
	BackendTimeout time.Duration
	AdminUser      string
	AdminPassword  string
	SecureCookies  bool
}

// LoadDefaults populates Config with development defaults. Secrets have no
// default on purpose: a missing secret is a configuration error, never a
// silent fallback.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.SessionTTL = 12 * time.Hour
	c.GitBaseURL = "https://api.github.com"
	c.GitBranch = "main"
	c.DashboardDir = "data/dashboards"
	c.UsersPath = "data/users.json"
	c.BackendTimeout = 10 * time.Second
	c.SecureCookies = true
}

// Validate reports missing mandatory settings.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	if c.GitToken == "" {
		return errors.New("git backend token is required")
	}
	if c.GitOwner == "" || c.GitRepo == "" {
		return errors.New("git backend owner and repo are required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables and finally
// command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
