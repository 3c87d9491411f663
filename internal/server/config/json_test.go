package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{old[0]}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestParseJson_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	content := `{
		"endpoint_addr": ":9999",
		"session_secret": "file-secret",
		"session_ttl": "1h",
		"git_owner": "acme",
		"git_repo": "boards",
		"secure_cookies": false
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c))

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, "file-secret", c.SessionSecret)
	assert.Equal(t, time.Hour, c.SessionTTL)
	assert.Equal(t, "acme", c.GitOwner)
	assert.Equal(t, "boards", c.GitRepo)
	assert.False(t, c.SecureCookies)

	// Values absent from the file keep their defaults.
	assert.Equal(t, "main", c.GitBranch)
	assert.Equal(t, "data/users.json", c.UsersPath)
}

func TestParseJson_NoFileFlag(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c))
	assert.Equal(t, ":8080", c.EndpointAddr)
}

func TestParseJson_MissingFile(t *testing.T) {
	withArgs(t, "-c", filepath.Join(t.TempDir(), "absent.json"))

	var c Config
	c.LoadDefaults()
	assert.Error(t, parseJson(&c))
}

func TestParseJson_InvalidJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	assert.Error(t, parseJson(&c))
}
