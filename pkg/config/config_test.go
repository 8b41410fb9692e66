package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MPBOT_TOKEN", "tok")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, "/wechat", cfg.WebhookPath)
	assert.Equal(t, "file", cfg.Session.Backend)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mpbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token: file-token
port: 9000
session:
  backend: sqlite
  db_path: bot.db
  ttl: 24h
`), 0o644))

	t.Setenv("MPBOT_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, 9100, cfg.Port, "env overrides the file")
	assert.Equal(t, "sqlite", cfg.Session.Backend)
	assert.Equal(t, "bot.db", cfg.Session.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL.Std())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Token = "tok"
		return cfg
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Token = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Port = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.WebhookPath = "wechat"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Session.Backend = "redis"
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
