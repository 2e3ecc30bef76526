package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "env: development\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 2333 {
		t.Errorf("port = %d, want 2333", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("development env not detected")
	}
	if !strings.Contains(cfg.DSN, "/phrasebox?") {
		t.Errorf("default DSN missing database name: %s", cfg.DSN)
	}
	if !strings.HasPrefix(cfg.RedisURL, "redis://") {
		t.Errorf("default redis URL malformed: %s", cfg.RedisURL)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: production
jwt_secret: super-secret
timezone: Asia/Tokyo
database:
  host: db.internal
  port: 3307
  user: app
  password: pw
  name: phrasebox_prod
redis:
  host: cache.internal
  port: 6380
  db: 2
allowed_origins:
  - "*.phrasebox.app"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("production env reported as dev")
	}
	if cfg.JWTSecret != "super-secret" {
		t.Errorf("jwt secret = %q", cfg.JWTSecret)
	}
	if !strings.Contains(cfg.DSN, "app:pw@tcp(db.internal:3307)/phrasebox_prod") {
		t.Errorf("DSN = %s", cfg.DSN)
	}
	if !strings.Contains(cfg.RedisURL, "cache.internal:6380") || !strings.HasSuffix(strings.Split(cfg.RedisURL, "?")[0], "/2") {
		t.Errorf("redis URL = %s", cfg.RedisURL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*.phrasebox.app" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := writeConfig(t, "port: 99999\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestRedisURLNormalization(t *testing.T) {
	cfg := RedisRuntimeConfig{URL: "localhost:6379"}
	if got := cfg.URLValue(); got != "redis://localhost:6379" {
		t.Errorf("URLValue = %s", got)
	}
}
