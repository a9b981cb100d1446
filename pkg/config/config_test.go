package config

import (
	"testing"
	"time"
)

func TestLoadCLIConfigDefaults(t *testing.T) {
	cfg := LoadCLIConfig()
	if cfg.APIBaseURL != "https://api.whop.com" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.BuildTimeout != 600*time.Second {
		t.Fatalf("BuildTimeout = %v", cfg.BuildTimeout)
	}
	if cfg.Insecure {
		t.Fatal("Insecure defaulted to true")
	}
}

func TestLoadCLIConfigOverrides(t *testing.T) {
	t.Setenv("WHOP_API_URL", "http://localhost:4000")
	t.Setenv("WHOPCTL_REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("WHOPCTL_INSECURE", "true")
	t.Setenv("WHOPCTL_WORKDIR", "/tmp/builds")

	cfg := LoadCLIConfig()
	if cfg.APIBaseURL != "http://localhost:4000" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if !cfg.Insecure {
		t.Fatal("Insecure override ignored")
	}
	if cfg.Workdir != "/tmp/builds" {
		t.Fatalf("Workdir = %q", cfg.Workdir)
	}
}

func TestGetIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("WHOPCTL_REQUEST_TIMEOUT_SECONDS", "soon")
	if got := GetInt("WHOPCTL_REQUEST_TIMEOUT_SECONDS", 15); got != 15 {
		t.Fatalf("GetInt = %d, want fallback 15", got)
	}
}
