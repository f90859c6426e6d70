package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EnvOnlyWhenFileMissing(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Game.ResetHourUTC)
	assert.Equal(t, 30*time.Second, cfg.Game.RefetchInterval)
	assert.Equal(t, "http://localhost:8080/auth/discord/callback", cfg.Auth.DiscordCallbackURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  port: 7000
  log_level: debug
  allowed_origins: [https://heardle.example]
database:
  path: /var/lib/heardle/db.sqlite
auth:
  jwt_secret: from-file-secret-value
  discord_callback_url: https://heardle.example/auth/discord/callback
game:
  reset_hour_utc: 5
  refetch_interval: 45s
rate_limit:
  guesses_per_second: 1
  burst: 2
`)
	t.Setenv("PORT", "7100")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "env overrides file")
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/var/lib/heardle/db.sqlite", cfg.Database.Path)
	assert.Equal(t, "from-file-secret-value", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://heardle.example/auth/discord/callback", cfg.Auth.DiscordCallbackURL)
	assert.Equal(t, 5, cfg.Game.ResetHourUTC)
	assert.Equal(t, 45*time.Second, cfg.Game.RefetchInterval)
	assert.Equal(t, time.Second, cfg.Game.CountdownInterval, "default kept")
	assert.Equal(t, 1.0, cfg.RateLimit.GuessesPerSecond)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "server: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestLoad_BadEnvValues(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "eighty")
	t.Setenv("REFETCH_INTERVAL", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "REFETCH_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "jwt_secret"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "bad level", mutate: func(c *Config) { c.Server.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "reset hour", mutate: func(c *Config) { c.Game.ResetHourUTC = 24 }, wantErr: "reset_hour_utc"},
		{name: "refetch", mutate: func(c *Config) { c.Game.RefetchInterval = 0 }, wantErr: "refetch_interval"},
		{name: "burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: "burst"},
		{name: "metrics path", mutate: func(c *Config) { c.Metrics.Path = "metrics" }, wantErr: "metrics.path"},
		{name: "metrics path ignored when disabled", mutate: func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Path = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = testSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("HEARDLE_CONFIG", "")
	assert.Equal(t, DefaultPath, PathFromEnv())

	t.Setenv("HEARDLE_CONFIG", "/etc/heardle.yaml")
	assert.Equal(t, "/etc/heardle.yaml", PathFromEnv())
}

func TestDiscordEnabled(t *testing.T) {
	a := AuthConfig{DiscordClientID: "id"}
	assert.False(t, a.DiscordEnabled())
	a.DiscordClientSecret = "secret"
	assert.True(t, a.DiscordEnabled())
}
