//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "sekrit")

	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Admin.Port != 9090 {
		t.Errorf("ports = %d/%d", cfg.Server.Port, cfg.Admin.Port)
	}
	if cfg.Shares.FilmmakerPct != 70 || cfg.Shares.AdminPct != 30 {
		t.Errorf("shares = %d/%d, want 70/30", cfg.Shares.FilmmakerPct, cfg.Shares.AdminPct)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 3000
database:
  url: postgres://file/db
shares:
  filmmaker_pct: 60
  admin_pct: 40
`)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("JWT_SECRET", "sekrit")
	t.Setenv("ADMIN_MOMO_NUMBER", "0788888888")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.URL != "postgres://env/db" {
		t.Errorf("database.url = %s, env must win", cfg.Database.URL)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, file value must survive", cfg.Server.Port)
	}
	if cfg.Shares.FilmmakerPct != 60 || cfg.Shares.AdminMomoNumber != "0788888888" {
		t.Errorf("shares = %+v", cfg.Shares)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not carried")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "sekrit")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig("", false); err == nil {
		t.Error("expected error without database url")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("FILMMAKER_SHARE_PERCENTAGE", "80")
	t.Setenv("ADMIN_SHARE_PERCENTAGE", "30")
	if _, err := LoadConfig("", false); err == nil {
		t.Error("expected error when shares do not sum to 100")
	}
}
