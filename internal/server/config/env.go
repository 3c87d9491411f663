package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration from DASHVAULT_* environment variables.
// Only variables that are set override the current values.
func parseEnv(config *Config) {
	setString := func(name string, target *string) {
		if v, ok := os.LookupEnv(name); ok {
			*target = v
		}
	}

	setString("DASHVAULT_ADDR", &config.EndpointAddr)
	setString("DASHVAULT_SESSION_SECRET", &config.SessionSecret)
	setString("DASHVAULT_GIT_BASE_URL", &config.GitBaseURL)
	setString("DASHVAULT_GIT_TOKEN", &config.GitToken)
	setString("DASHVAULT_GIT_OWNER", &config.GitOwner)
	setString("DASHVAULT_GIT_REPO", &config.GitRepo)
	setString("DASHVAULT_GIT_BRANCH", &config.GitBranch)
	setString("DASHVAULT_DASHBOARD_DIR", &config.DashboardDir)
	setString("DASHVAULT_USERS_PATH", &config.UsersPath)
	setString("DASHVAULT_ADMIN_USER", &config.AdminUser)
	setString("DASHVAULT_ADMIN_PASSWORD", &config.AdminPassword)

	if v, ok := os.LookupEnv("DASHVAULT_SESSION_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SessionTTL = d
		}
	}
	if v, ok := os.LookupEnv("DASHVAULT_BACKEND_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.BackendTimeout = d
		}
	}
	if v, ok := os.LookupEnv("DASHVAULT_SECURE_COOKIES"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.SecureCookies = b
		}
	}
}
