package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.APIURL != "http://localhost:3022" {
		t.Fatalf("unexpected api url: %s", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected http settings: %+v", cfg)
	}
	if cfg.Dev.Addr != ":3022" || cfg.Dev.PaymentSeconds != 900 || cfg.Dev.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected dev settings: %+v", cfg.Dev)
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnv(t *testing.T) {
	dir := chdirTemp(t)
	content := "CINETIX_API_URL=http://from-file:9000\nCINETIX_MAX_ATTEMPTS=5\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CINETIX_API_URL", "http://from-env:8000")
	t.Setenv("CINETIX_MAX_ATTEMPTS", "")
	os.Unsetenv("CINETIX_MAX_ATTEMPTS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.APIURL != "http://from-env:8000" {
		t.Fatalf("expected environment to win, got %s", cfg.APIURL)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("expected .env value, got %d", cfg.MaxAttempts)
	}
}

func TestParseEnvError(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CINETIX_HTTP_TIMEOUT", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidateRejectsZeroAttempts(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CINETIX_MAX_ATTEMPTS", "0")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CINETIX_MAX_ATTEMPTS") {
		t.Fatalf("expected max attempts error, got %v", err)
	}
}
