package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "no topics",
			mutate: func(cfg *Config) {
				cfg.Topics = nil
			},
			wantErr: "topic",
		},
		{
			name: "duplicate topic",
			mutate: func(cfg *Config) {
				cfg.Topics = []string{"Go", "Go"}
			},
			wantErr: "duplicate topic",
		},
		{
			name: "max results above api limit",
			mutate: func(cfg *Config) {
				cfg.MaxResults = 41
			},
			wantErr: "max results",
		},
		{
			name: "zero max results",
			mutate: func(cfg *Config) {
				cfg.MaxResults = 0
			},
			wantErr: "max results",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "zero session cache",
			mutate: func(cfg *Config) {
				cfg.SessionCacheSize = 0
			},
			wantErr: "session cache",
		},
		{
			name: "zero histogram bins",
			mutate: func(cfg *Config) {
				cfg.HistogramBins = 0
			},
			wantErr: "histogram bins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if len(cfg.Topics) != 5 {
		t.Fatalf("topics = %d, want 5", len(cfg.Topics))
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BOOKS_TOPICS", "Go; Rust ;")
	t.Setenv("BOOKS_MAX_RESULTS", "20")
	t.Setenv("BOOKS_TIMEOUT", "3s")
	t.Setenv("DASHBOARD_ADDR", ":9000")
	t.Setenv("DASHBOARD_VERBOSE", "true")

	cfg := DefaultConfig()
	if err := cfg.FromEnv(); err != nil {
		t.Fatalf("from env: %v", err)
	}
	if len(cfg.Topics) != 2 || cfg.Topics[0] != "Go" || cfg.Topics[1] != "Rust" {
		t.Fatalf("topics = %v, want [Go Rust]", cfg.Topics)
	}
	if cfg.MaxResults != 20 {
		t.Fatalf("max results = %d, want 20", cfg.MaxResults)
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.Addr != ":9000" || !cfg.Verbose {
		t.Fatalf("addr/verbose = %q/%v", cfg.Addr, cfg.Verbose)
	}
}

func TestFromEnvRejectsBadInt(t *testing.T) {
	t.Setenv("BOOKS_MAX_RESULTS", "forty")
	cfg := DefaultConfig()
	if err := cfg.FromEnv(); err == nil || !strings.Contains(err.Error(), "BOOKS_MAX_RESULTS") {
		t.Fatalf("expected BOOKS_MAX_RESULTS error, got %v", err)
	}
}

func TestLoadAPIKeyPrefersSecretStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.yaml")
	if err := os.WriteFile(path, []byte("google_books_api_key: from-store\n"), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}
	t.Setenv(APIKeyEnv, "from-env")

	cfg := DefaultConfig()
	cfg.SecretsFile = path
	if err := cfg.LoadAPIKey(); err != nil {
		t.Fatalf("load api key: %v", err)
	}
	if cfg.APIKey != "from-store" {
		t.Fatalf("api key = %q, want from-store", cfg.APIKey)
	}
}

func TestLoadAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")

	cfg := DefaultConfig()
	cfg.SecretsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if err := cfg.LoadAPIKey(); err != nil {
		t.Fatalf("load api key: %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Fatalf("api key = %q, want from-env", cfg.APIKey)
	}
}

func TestLoadAPIKeyMissing(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	cfg := DefaultConfig()
	cfg.SecretsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if err := cfg.LoadAPIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadAPIKeyMalformedStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.yaml")
	if err := os.WriteFile(path, []byte("google_books_api_key: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	cfg := DefaultConfig()
	cfg.SecretsFile = path
	if err := cfg.LoadAPIKey(); err == nil || !strings.Contains(err.Error(), "parse secrets file") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DASHBOARD_ADDR=:7000\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DASHBOARD_ADDR", ":9999")

	if err := LoadDotEnv(path, filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("DASHBOARD_ADDR"); got != ":9999" {
		t.Fatalf("DASHBOARD_ADDR = %q, want :9999", got)
	}
}
