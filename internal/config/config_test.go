package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected default session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadVerifierCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("VERIFIER_CREDENTIALS", "alice:s1, bob:s2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.VerifierCredentials) != 2 || cfg.VerifierCredentials["alice"] != "s1" || cfg.VerifierCredentials["bob"] != "s2" {
		t.Fatalf("unexpected credentials: %v", cfg.VerifierCredentials)
	}
}

func TestLoadRejectsMalformedCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("VERIFIER_CREDENTIALS", "alice")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed credentials")
	}
}

func TestLoadRequiresBackendsOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing in production")
	}
}
