// Package config loads application settings from configs/config.yml and
// BANK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BANK"

// ErrMissingSecret is returned when no session secret is configured outside dev mode.
var ErrMissingSecret = errors.New("session.secret is required")

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBPath string

	Session SessionConfig
	Auth    AuthConfig
	Server  ServerConfig
	Ledger  LedgerConfig
}

type SessionConfig struct {
	Secret        string
	CookieName    string
	TTL           time.Duration
	SecureCookie  bool
	PurgeInterval time.Duration
}

type AuthConfig struct {
	TokenTTL time.Duration
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type LedgerConfig struct {
	Currency string
}

// devSecret is used only when env=dev and no secret is configured.
const devSecret = "dev-only-session-secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "bank.db")
	v.SetDefault("session.cookie_name", "bank_session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("session.purge_interval", "10m")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("ledger.currency", "Ksh")
}

// Load reads config.yml from dir (if present) and applies env overrides.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir) // configs/config.yml
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      v.GetString("env"),
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		DBPath:   v.GetString("db.path"),
		Session: SessionConfig{
			Secret:        v.GetString("session.secret"),
			CookieName:    v.GetString("session.cookie_name"),
			TTL:           v.GetDuration("session.ttl"),
			SecureCookie:  v.GetBool("session.secure_cookie"),
			PurgeInterval: v.GetDuration("session.purge_interval"),
		},
		Auth: AuthConfig{
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
		Server: ServerConfig{
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
		Ledger: LedgerConfig{
			Currency: v.GetString("ledger.currency"),
		},
	}

	if cfg.Session.Secret == "" {
		if cfg.Env != "dev" {
			return nil, ErrMissingSecret
		}
		cfg.Session.Secret = devSecret
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("session.ttl must be positive, got %s", cfg.Session.TTL)
	}
	return cfg, nil
}
