package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("TEST_PG_DSN", "postgres://env-host/db")
	path := writeConfig(t, `{
		"database": {
			"postgres": {"dsn": "${TEST_PG_DSN}"},
			"redis": {"url": "${TEST_MISSING_URL:redis://localhost:6379}"}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Postgres.DSN != "postgres://env-host/db" {
		t.Errorf("dsn = %q, want env value", cfg.Database.Postgres.DSN)
	}
	if cfg.Database.Redis.URL != "redis://localhost:6379" {
		t.Errorf("redis url = %q, want default fallback", cfg.Database.Redis.URL)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("TEST_QDRANT_HOST", "qdrant.internal")
	path := writeConfig(t, `{
		"database": {"qdrant": {"host": "${TEST_QDRANT_HOST:localhost}", "port": 6334}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Qdrant.Host != "qdrant.internal" {
		t.Errorf("host = %q, want env to win over default", cfg.Database.Qdrant.Host)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.World.TickIntervalMS != 1000 {
		t.Errorf("tick interval = %d, want 1000", cfg.World.TickIntervalMS)
	}
	if cfg.World.TimeSpeed != 1.0 {
		t.Errorf("time speed = %f, want 1.0", cfg.World.TimeSpeed)
	}
	if cfg.World.RetentionHours != 6 {
		t.Errorf("retention hours = %d, want 6", cfg.World.RetentionHours)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"server": `)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for malformed config")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
