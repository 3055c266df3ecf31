package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_RequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("BACKEND_URL", "https://api.example.com")

	_, err := Load()
	if !errors.Is(err, ErrMissingSessionSecret) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingSessionSecret)
	}
}

func TestLoad_RequiresBackendURL(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("BACKEND_URL", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingBackendURL) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingBackendURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("ENV", "")
	t.Setenv("SUPPORTED_LANGUAGES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Backend.Timeout)
	}
	if cfg.Backend.UploadTimeout != 60*time.Second {
		t.Errorf("UploadTimeout = %v, want 60s", cfg.Backend.UploadTimeout)
	}
	if cfg.Session.MaxAge != 30*24*time.Hour {
		t.Errorf("Session.MaxAge = %v, want 30 days", cfg.Session.MaxAge)
	}
	if cfg.Session.Secure {
		t.Error("Session.Secure should default to false outside production")
	}
	if cfg.Session.StoreLimit != 10000 || cfg.Session.StoreIdle != 2*time.Hour {
		t.Errorf("Session store bounds = %d/%v, want 10000/2h", cfg.Session.StoreLimit, cfg.Session.StoreIdle)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if len(cfg.Locale.SupportedLanguages) != 2 {
		t.Errorf("SupportedLanguages = %v", cfg.Locale.SupportedLanguages)
	}
	if cfg.Locale.FallbackCountryCode != "MX" {
		t.Errorf("FallbackCountryCode = %q", cfg.Locale.FallbackCountryCode)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("CACHE_TTL", "five minutes")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid CACHE_TTL")
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("LIST_KEY", " es, en ,,fr ")

	got := getEnvAsList("LIST_KEY", nil)
	want := []string{"es", "en", "fr"}
	if len(got) != len(want) {
		t.Fatalf("getEnvAsList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("getEnvAsList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad_ProductionSecuresCookie(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECURE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Server.IsProduction() {
		t.Fatal("IsProduction() = false for ENV=production")
	}
	if !cfg.Session.Secure {
		t.Error("Session.Secure should default to true in production")
	}
}
