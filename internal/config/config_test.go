package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://crm@localhost/crm?sslmode=disable
jwt:
  secret: test-secret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.JWT.AccessTTL)
	}
	if cfg.Files.RootDir != "./files" {
		t.Fatalf("unexpected files root: %s", cfg.Files.RootDir)
	}
	if cfg.IsProduction() {
		t.Fatalf("default env must not be production")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  url: postgres://yaml
jwt:
  secret: yaml-secret
`)
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("PORT not applied: %d", cfg.Server.Port)
	}
	if cfg.Database.DSN != "postgres://env" {
		t.Fatalf("DATABASE_URL not applied: %s", cfg.Database.DSN)
	}
	if !cfg.IsProduction() {
		t.Fatalf("APP_ENV not applied")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing database url")
	}
}

func TestLoadBadPort(t *testing.T) {
	path := writeConfig(t, "database:\n  url: x\njwt:\n  secret: y\n")
	t.Setenv("PORT", "eighty")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-numeric PORT")
	}
}
