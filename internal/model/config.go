package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig locates the backend.
type APIConfig struct {
	// GraphQLURL is the full URL of the GraphQL endpoint.
	GraphQLURL string `mapstructure:"graphql_url" yaml:"graphql_url"`

	// RESTURL is the base URL of the REST API used for the auth fallback
	// and token refresh.
	RESTURL string `mapstructure:"rest_url" yaml:"rest_url"`

	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// Timeout returns the per-request HTTP timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Auth transports.
const (
	AuthTransportGraphQL = "graphql"
	AuthTransportREST    = "rest"
)

// AuthConfig selects how login and registration reach the backend.
type AuthConfig struct {
	// Transport is "graphql" (login/register mutations) or "rest".
	Transport string `mapstructure:"transport" yaml:"transport"`

	// LogoutPath is an optional REST path that receives the refresh token
	// on logout (e.g. "/token/blacklist/"). Its outcome is ignored.
	LogoutPath string `mapstructure:"logout_path" yaml:"logout_path"`
}

// Token storage backends.
const (
	TokenStoreSQLite  = "sqlite"
	TokenStoreKeyring = "keyring"
	TokenStoreMemory  = "memory"
)

// StorageConfig controls durable client storage.
type StorageConfig struct {
	// Path is the SQLite database file holding session state.
	Path string `mapstructure:"path" yaml:"path"`

	// Tokens selects where access and refresh tokens live.
	Tokens string `mapstructure:"tokens" yaml:"tokens"`
}

// OAuthClient holds the provider credentials for one service.
type OAuthClient struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// OAuthConfig controls account linking.
type OAuthConfig struct {
	RedirectURL    string `mapstructure:"redirect_url" yaml:"redirect_url"`
	CallbackAddr   string `mapstructure:"callback_addr" yaml:"callback_addr"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	TimeoutSec     int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// Clients maps a service name to its provider credentials.
	Clients map[string]OAuthClient `mapstructure:"clients" yaml:"clients"`
}

// PollInterval returns the completion poller interval.
func (c OAuthConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Timeout returns the completion poller lifetime.
func (c OAuthConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// NotificationConfig controls local notifications.
type NotificationConfig struct {
	DefaultDurationMs int `mapstructure:"default_duration_ms" yaml:"default_duration_ms"`
}

// DefaultDuration returns the auto-hide delay for notifications that do
// not set one.
func (c NotificationConfig) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMs) * time.Millisecond
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Auth          AuthConfig         `mapstructure:"auth" yaml:"auth"`
	Storage       StorageConfig      `mapstructure:"storage" yaml:"storage"`
	OAuth         OAuthConfig        `mapstructure:"oauth" yaml:"oauth"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/taskpilot, or the working directory when
// the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskpilot")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskpilot/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// setDefaults registers every default on v so missing keys resolve to
// sensible values and environment overrides are recognised.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.graphql_url", "http://localhost:8000/graphql/")
	v.SetDefault("api.rest_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("auth.transport", AuthTransportGraphQL)
	v.SetDefault("auth.logout_path", "")
	v.SetDefault("storage.path", filepath.Join(configDir(), "state.db"))
	v.SetDefault("storage.tokens", TokenStoreSQLite)
	v.SetDefault("oauth.redirect_url", "http://localhost:51121/oauth/callback")
	v.SetDefault("oauth.callback_addr", "localhost:51121")
	v.SetDefault("oauth.poll_interval_ms", 1000)
	v.SetDefault("oauth.timeout_sec", 300)
	v.SetDefault("notifications.default_duration_ms", 5000)
	v.SetDefault("log.level", "info")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	v := viper.New()
	setDefaults(v)
	cfg := &AppConfig{}
	// Defaults alone always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TASKPILOT_ override file values
// (e.g. TASKPILOT_API_GRAPHQL_URL). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Auth.Transport {
	case AuthTransportGraphQL, AuthTransportREST:
	default:
		return nil, fmt.Errorf("invalid auth.transport %q", cfg.Auth.Transport)
	}
	switch cfg.Storage.Tokens {
	case TokenStoreSQLite, TokenStoreKeyring, TokenStoreMemory:
	default:
		return nil, fmt.Errorf("invalid storage.tokens %q", cfg.Storage.Tokens)
	}
	if cfg.OAuth.PollIntervalMs <= 0 {
		cfg.OAuth.PollIntervalMs = 1000
	}
	if cfg.OAuth.TimeoutSec <= 0 {
		cfg.OAuth.TimeoutSec = 300
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("auth", cfg.Auth)
	v.Set("storage", cfg.Storage)
	v.Set("oauth", cfg.OAuth)
	v.Set("notifications", cfg.Notifications)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
