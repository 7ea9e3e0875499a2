package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("unexpected api url: %s", cfg.APIURL)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected no request timeout by default, got %s", cfg.RequestTimeout)
	}
	if cfg.IncludeHistory {
		t.Fatalf("history must default to off")
	}
	if !cfg.AltScreen || cfg.LogLevel != "info" || !cfg.Interactive() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvironmentFallback(t *testing.T) {
	t.Setenv("CALLQA_API_URL", "https://qa.example.com")
	t.Setenv("CALLQA_HISTORY", "true")
	t.Setenv("CALLQA_REQUEST_TIMEOUT", "15")
	t.Setenv("CALLQA_CALL_ID", "call-9")

	cfg, err := Load(nil, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://qa.example.com" || !cfg.IncludeHistory || cfg.CallID != "call-9" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout)
	}
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CALLQA_API_URL", "https://env.example.com")
	t.Setenv("CALLQA_HISTORY", "true")

	cfg, err := Load([]string{"--api-url", "http://flag.example.com", "--history=false"}, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://flag.example.com" {
		t.Fatalf("flag should win, got %s", cfg.APIURL)
	}
	if cfg.IncludeHistory {
		t.Fatalf("explicit --history=false should win over env")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callqa.yaml")
	if err := os.WriteFile(path, []byte("api_url: http://file.example.com\nlog_level: DEBUG\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load([]string{"--config", path}, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://file.example.com" || cfg.LogLevel != "debug" {
		t.Fatalf("config file not applied: %+v", cfg)
	}

	if _, err := Load([]string{"--config", filepath.Join(dir, "missing.yaml")}, io.Discard); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadClampsTimeout(t *testing.T) {
	cfg, err := Load([]string{"--request-timeout", "100000"}, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != maxRequestTimeoutSeconds*time.Second {
		t.Fatalf("expected clamp, got %s", cfg.RequestTimeout)
	}
	cfg, err = Load([]string{"--request-timeout", "-3"}, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected negative timeout to clamp to 0, got %s", cfg.RequestTimeout)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string][]string{
		"ask without call": {"--ask", "who attended?"},
		"list and ask":     {"--list", "--call-id", "c", "--ask", "q"},
		"empty api url":    {"--api-url", "  "},
		"positional args":  {"extra"},
		"unknown flag":     {"--nope"},
	}
	for name, args := range cases {
		if _, err := Load(args, io.Discard); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	cfg, err := Load([]string{"--call-id", "c", "--ask", "q"}, io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interactive() {
		t.Fatalf("--ask should disable the TUI")
	}
}
