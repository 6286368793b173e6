package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoad_Defaults_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "bank.db", cfg.DBPath)
	assert.Equal(t, "bank_session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "Ksh", cfg.Ledger.Currency)
	assert.Equal(t, devSecret, cfg.Session.Secret)
}

func TestLoad_FromFile(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
log:
  level: debug
db:
  path: /tmp/x.db
session:
  secret: s3cr3t
  ttl: 30m
ledger:
  currency: USD
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "s3cr3t", cfg.Session.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "USD", cfg.Ledger.Currency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, "port: \"9090\"\n")
	t.Setenv("BANK_PORT", "7070")
	t.Setenv("BANK_SESSION_SECRET", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "from-env", cfg.Session.Secret)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	dir := writeConfig(t, "env: prod\n")
	_, err := Load(dir)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "port: [unterminated\n")
	_, err := Load(dir)
	require.Error(t, err)
}
