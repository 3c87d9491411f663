package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.SessionTTL, 12*time.Hour)
	assert.Equal(t, c.GitBaseURL, "https://api.github.com")
	assert.Equal(t, c.GitBranch, "main")
	assert.Equal(t, c.DashboardDir, "data/dashboards")
	assert.Equal(t, c.UsersPath, "data/users.json")
	assert.Equal(t, c.BackendTimeout, 10*time.Second)
	assert.True(t, c.SecureCookies)

	// No secret defaults.
	assert.Empty(t, c.SessionSecret)
	assert.Empty(t, c.GitToken)
}

func TestValidate_MissingSecrets(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.GitOwner = "acme"
	c.GitRepo = "boards"

	// Missing secret must be a hard configuration error, never a
	// fallback value.
	assert.Error(t, c.Validate())

	c.SessionSecret = "secret"
	assert.Error(t, c.Validate(), "git token still missing")

	c.GitToken = "token"
	require.NoError(t, c.Validate())
}

func TestValidate_MissingRepo(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.SessionSecret = "secret"
	c.GitToken = "token"

	assert.Error(t, c.Validate())

	c.GitOwner = "acme"
	assert.Error(t, c.Validate())

	c.GitRepo = "boards"
	assert.NoError(t, c.Validate())
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("DASHVAULT_ADDR", ":9090")
	t.Setenv("DASHVAULT_SESSION_SECRET", "env-secret")
	t.Setenv("DASHVAULT_SESSION_TTL", "30m")
	t.Setenv("DASHVAULT_SECURE_COOKIES", "false")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9090", c.EndpointAddr)
	assert.Equal(t, "env-secret", c.SessionSecret)
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
	assert.False(t, c.SecureCookies)

	// Untouched values keep their defaults.
	assert.Equal(t, "main", c.GitBranch)
}

func TestParseEnv_IgnoresMalformedDurations(t *testing.T) {
	t.Setenv("DASHVAULT_SESSION_TTL", "not-a-duration")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, 12*time.Hour, c.SessionTTL)
}
