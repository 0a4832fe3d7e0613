package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"cmd"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func defaults() *Config {
	return &Config{
		ServerURL:      "http://127.0.0.1:3001",
		RequestTimeout: 10 * time.Second,
		PollInterval:   30 * time.Second,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("USERGATE_SERVER_URL", "http://api.internal:8080")
	t.Setenv("USERGATE_POLL_INTERVAL", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:8080", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://file:3001\ntoken_db: /tmp/s.db\npoll_interval: 1m\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	want := &Config{ServerURL: "http://file:3001", TokenDB: "/tmp/s.db", RequestTimeout: 10 * time.Second, PollInterval: time.Minute}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	t.Setenv("USERGATE_SERVER_URL", "http://from-env")
	withArgs(t, "-a", "http://from-flag", "-i", "7", "login")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag", cfg.ServerURL)
	assert.Equal(t, 7*time.Second, cfg.PollInterval)
}

func TestLoadConfig_UnsetFlagKeepsValue(t *testing.T) {
	t.Setenv("USERGATE_POLL_INTERVAL", "1500ms")
	withArgs(t, "me")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.PollInterval)
}

func TestLoadConfig_BadFlag(t *testing.T) {
	withArgs(t, "-i", "abc")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsZeroInterval(t *testing.T) {
	withArgs(t, "-i", "0")
	_, err := LoadConfig()
	assert.Error(t, err)
}
