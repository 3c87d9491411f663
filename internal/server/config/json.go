package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mkalinins/dashvault/internal/flagx"
	"github.com/mkalinins/dashvault/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "12h" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr   string         `json:"endpoint_addr"`
	SessionSecret  string         `json:"session_secret"`
	SessionTTL     timex.Duration `json:"session_ttl"`
	GitBaseURL     string         `json:"git_base_url"`
	GitToken       string         `json:"git_token"`
	GitOwner       string         `json:"git_owner"`
	GitRepo        string         `json:"git_repo"`
	GitBranch      string         `json:"git_branch"`
	DashboardDir   string         `json:"dashboard_dir"`
	UsersPath      string         `json:"users_path"`
	BackendTimeout timex.Duration `json:"backend_timeout"`
	AdminUser      string         `json:"admin_user"`
	AdminPassword  string         `json:"admin_password"`
	SecureCookies  *bool          `json:"secure_cookies"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no file is named, nothing is
// loaded. Only non-zero values override the current configuration, so the
// file may stay partial.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.SessionSecret != "" {
		config.SessionSecret = c.SessionSecret
	}
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.GitBaseURL != "" {
		config.GitBaseURL = c.GitBaseURL
	}
	if c.GitToken != "" {
		config.GitToken = c.GitToken
	}
	if c.GitOwner != "" {
		config.GitOwner = c.GitOwner
	}
	if c.GitRepo != "" {
		config.GitRepo = c.GitRepo
	}
	if c.GitBranch != "" {
		config.GitBranch = c.GitBranch
	}
	if c.DashboardDir != "" {
		config.DashboardDir = c.DashboardDir
	}
	if c.UsersPath != "" {
		config.UsersPath = c.UsersPath
	}
	if c.BackendTimeout.Duration != 0 {
		config.BackendTimeout = c.BackendTimeout.Duration
	}
	if c.AdminUser != "" {
		config.AdminUser = c.AdminUser
	}
	if c.AdminPassword != "" {
		config.AdminPassword = c.AdminPassword
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	return nil
}
