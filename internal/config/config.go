// Package config loads runtime settings.
//
// Sources, later ones winning:
//  1. defaults below
//  2. bookmark-api.yaml in the working directory (optional)
//  3. environment variables prefixed BOOKMARKS_, with "." in a key replaced
//     by "_" (db.dsn → BOOKMARKS_DB_DSN)
//
// A .env file in the working directory is loaded into the environment first;
// variables already set are not overridden.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "BOOKMARKS"
	minSecretBytes = 16
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	JWT struct {
		Secret string
		TTL    time.Duration
	}
	Log struct {
		Level  slog.Level
		Format string
	}
	CORS struct {
		AllowedOrigins []string
	}
	GitHub struct {
		ClientID     string
		ClientSecret string
		CallbackURL  string
	}
	ShutdownTimeout time.Duration
}

// GitHubEnabled reports whether GitHub OAuth credentials are configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.ClientID != ""
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("bookmark-api")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading bookmark-api.yaml: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/bookmarks.db")
	v.SetDefault("jwt.ttl", "15m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("shutdown.timeout", "30s")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"jwt.secret", "github.client_id", "github.client_secret", "github.callback_url"} {
		v.SetDefault(key, "")
	}
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = strings.ToLower(v.GetString("db.driver"))
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.JWT.Secret = v.GetString("jwt.secret")
	cfg.Log.Format = strings.ToLower(v.GetString("log.format"))
	cfg.CORS.AllowedOrigins = splitList(v.GetStringSlice("cors.allowed_origins"))
	cfg.GitHub.ClientID = v.GetString("github.client_id")
	cfg.GitHub.ClientSecret = v.GetString("github.client_secret")
	cfg.GitHub.CallbackURL = v.GetString("github.callback_url")

	var err error
	if cfg.JWT.TTL, err = parseDuration(v, "jwt.ttl"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDuration(v, "shutdown.timeout"); err != nil {
		return nil, err
	}
	if err := cfg.Log.Level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("config: invalid %s_LOG_LEVEL %q", envPrefix, v.GetString("log.level"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: %s_DB_DRIVER must be sqlite or postgres, got %q", envPrefix, c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("config: %s_DB_DSN is required", envPrefix)
	}
	if len(c.JWT.Secret) < minSecretBytes {
		return fmt.Errorf("config: %s_JWT_SECRET is required and must be at least %d characters", envPrefix, minSecretBytes)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("config: %s_JWT_TTL must be positive", envPrefix)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: %s_LOG_FORMAT must be text or json, got %q", envPrefix, c.Log.Format)
	}
	if c.GitHubEnabled() {
		if c.GitHub.ClientSecret == "" {
			return fmt.Errorf("config: %s_GITHUB_CLIENT_SECRET is required when %s_GITHUB_CLIENT_ID is set", envPrefix, envPrefix)
		}
		if c.GitHub.CallbackURL == "" {
			c.GitHub.CallbackURL = "http://localhost" + c.HTTP.Addr + "/auth/github/callback"
		}
	}
	return nil
}

// NewLogger builds the process logger from the log settings.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Log.Level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		return 0, fmt.Errorf("config: invalid %s %q: %w", env, raw, err)
	}
	return d, nil
}

// splitList flattens comma-separated entries so the same key works as a
// YAML list and as "a,b" in an environment variable.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
