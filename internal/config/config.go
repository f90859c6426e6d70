// Package config loads server settings.
//
// Order of precedence, lowest first:
//  1. Defaults (Default)
//  2. The YAML file named by HEARDLE_CONFIG (default "config.yaml"), if it exists
//  3. Environment variables, including any loaded from a local .env file
//
// Secrets (JWT secret, Discord client secret, admin key hash) are normally
// supplied through the environment and left out of the YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when HEARDLE_CONFIG is unset.
const DefaultPath = "config.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Game      GameConfig      `yaml:"game"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
	// PublicURL is where the browser reaches the app; OAuth redirects
	// land here after login and logout.
	PublicURL      string   `yaml:"public_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	SecureCookies  bool     `yaml:"secure_cookies"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	DiscordClientID     string        `yaml:"discord_client_id"`
	DiscordClientSecret string        `yaml:"discord_client_secret"`
	DiscordCallbackURL  string        `yaml:"discord_callback_url"`
	// AdminKeyHash is a bcrypt hash of the provisioning key. Empty disables
	// the admin API.
	AdminKeyHash string `yaml:"admin_key_hash"`
}

// DiscordEnabled reports whether the OAuth routes can be served.
func (a AuthConfig) DiscordEnabled() bool {
	return a.DiscordClientID != "" && a.DiscordClientSecret != ""
}

type GameConfig struct {
	ResetHourUTC int `yaml:"reset_hour_utc"`
	// RefetchInterval is how often clients should poll round state to pick
	// up guesses made in another tab.
	RefetchInterval time.Duration `yaml:"refetch_interval"`
	// CountdownInterval is the tick of the countdown stream.
	CountdownInterval time.Duration `yaml:"countdown_interval"`
	// GuestRoundTTL is how long an untouched guest round is kept in memory.
	GuestRoundTTL time.Duration `yaml:"guest_round_ttl"`
}

type RateLimitConfig struct {
	GuessesPerSecond float64 `yaml:"guesses_per_second"`
	Burst            int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a config that runs locally without any files.
// JWTSecret is left empty on purpose: Validate rejects it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      8080,
			LogLevel:  "info",
			PublicURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{Path: "data/heardle.db"},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Game: GameConfig{
			ResetHourUTC:      3,
			RefetchInterval:   30 * time.Second,
			CountdownInterval: time.Second,
			GuestRoundTTL:     48 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			GuessesPerSecond: 2,
			Burst:            4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads .env, then the YAML file at path, then the environment, and
// validates the result. A missing .env or YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Environment only.
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PathFromEnv returns HEARDLE_CONFIG or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv("HEARDLE_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a number", key, v))
				return
			}
			*dst = f
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a duration", key, v))
				return
			}
			*dst = d
		}
	}

	setInt("PORT", &c.Server.Port)
	setString("LOG_LEVEL", &c.Server.LogLevel)
	setString("PUBLIC_URL", &c.Server.PublicURL)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setBool("SECURE_COOKIES", &c.Server.SecureCookies)

	setString("DB_PATH", &c.Database.Path)

	setString("JWT_SECRET", &c.Auth.JWTSecret)
	setDuration("TOKEN_TTL", &c.Auth.TokenTTL)
	setString("DISCORD_CLIENT_ID", &c.Auth.DiscordClientID)
	setString("DISCORD_CLIENT_SECRET", &c.Auth.DiscordClientSecret)
	setString("DISCORD_CALLBACK_URL", &c.Auth.DiscordCallbackURL)
	setString("ADMIN_KEY_HASH", &c.Auth.AdminKeyHash)

	setInt("RESET_HOUR_UTC", &c.Game.ResetHourUTC)
	setDuration("REFETCH_INTERVAL", &c.Game.RefetchInterval)
	setDuration("COUNTDOWN_INTERVAL", &c.Game.CountdownInterval)
	setDuration("GUEST_ROUND_TTL", &c.Game.GuestRoundTTL)

	setFloat("RATE_LIMIT_GUESSES_PER_SECOND", &c.RateLimit.GuessesPerSecond)
	setInt("RATE_LIMIT_BURST", &c.RateLimit.Burst)

	setBool("METRICS_ENABLED", &c.Metrics.Enabled)
	setString("METRICS_PATH", &c.Metrics.Path)

	if c.Auth.DiscordCallbackURL == "" {
		c.Auth.DiscordCallbackURL = strings.TrimRight(c.Server.PublicURL, "/") + "/auth/discord/callback"
	}

	return errors.Join(errs...)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if _, err := ParseLevel(c.Server.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters (set JWT_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Game.ResetHourUTC < 0 || c.Game.ResetHourUTC > 23 {
		errs = append(errs, fmt.Errorf("game.reset_hour_utc must be 0-23, got %d", c.Game.ResetHourUTC))
	}
	if c.Game.RefetchInterval <= 0 {
		errs = append(errs, errors.New("game.refetch_interval must be positive"))
	}
	if c.Game.CountdownInterval <= 0 {
		errs = append(errs, errors.New("game.countdown_interval must be positive"))
	}
	if c.Game.GuestRoundTTL <= 0 {
		errs = append(errs, errors.New("game.guest_round_ttl must be positive"))
	}
	if c.RateLimit.GuessesPerSecond <= 0 {
		errs = append(errs, errors.New("rate_limit.guesses_per_second must be positive"))
	}
	if c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1"))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("server.log_level %q is not one of debug, info, warn, error", s)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
