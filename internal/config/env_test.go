package config

import (
	"os"
	"testing"
)

// leadlensEnvVars are all variables FromEnv reads. Tests clear them first
// so results do not depend on the surrounding environment.
var leadlensEnvVars = []string{
	"GROQ_API_KEY", "GROQ_MODEL", "GROQ_API_BASE",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"OLLAMA_HOST", "OLLAMA_MODEL",
	"LEADLENS_LISTEN", "LEADLENS_LOG_LEVEL", "LEADLENS_LOG_FORMAT",
	"LEADLENS_CACHE_MODE", "LEADLENS_CACHE_PATH", "LEADLENS_CACHE_TTL",
	"LEADLENS_CALLS_PER_MINUTE", "LEADLENS_CALLS_PER_DAY",
	"DISABLE_CACHE",
}

// clearLeadlensEnv unsets every FromEnv variable for the duration of the test.
// t.Setenv registers the restore, so the original environment survives.
func clearLeadlensEnv(t *testing.T) {
	t.Helper()
	for _, key := range leadlensEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearLeadlensEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if len(cfg.Providers) != 0 {
		t.Errorf("Expected no providers without credentials, got %d", len(cfg.Providers))
	}

	if cfg.Server.Listen != "127.0.0.1:8080" {
		t.Errorf("Expected default listen=127.0.0.1:8080, got %s", cfg.Server.Listen)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default level=info, got %s", cfg.Logging.Level)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default format=json, got %s", cfg.Logging.Format)
	}

	if cfg.Cache.Mode != "single" {
		t.Errorf("Expected default cache mode=single, got %s", cfg.Cache.Mode)
	}

	if cfg.Cache.Disabled {
		t.Error("Expected cache enabled by default")
	}

	// Quota zeros fall back through the getters.
	if got := cfg.Quota.GetCallsPerMinute(); got != DefaultCallsPerMinute {
		t.Errorf("Expected default calls per minute %d, got %d", DefaultCallsPerMinute, got)
	}

	if got := cfg.Quota.GetCallsPerDay(); got != DefaultCallsPerDay {
		t.Errorf("Expected default calls per day %d, got %d", DefaultCallsPerDay, got)
	}
}

func TestFromEnvGroqDiscovery(t *testing.T) {
	clearLeadlensEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-env-test")
	t.Setenv("GROQ_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("GROQ_API_BASE", "https://groq.example.com/openai/v1")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if len(cfg.Providers) != 1 {
		t.Fatalf("Expected 1 provider, got %d", len(cfg.Providers))
	}

	provider := cfg.Providers[0]
	if provider.Name != "groq" {
		t.Errorf("Expected name=groq, got %s", provider.Name)
	}

	if provider.Type != ProviderGroq {
		t.Errorf("Expected type=groq, got %s", provider.Type)
	}

	if provider.APIKey != "gsk-env-test" {
		t.Errorf("Expected api_key=gsk-env-test, got %s", provider.APIKey)
	}

	if provider.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Expected model override, got %s", provider.Model)
	}

	if provider.BaseURL != "https://groq.example.com/openai/v1" {
		t.Errorf("Expected base_url override, got %s", provider.BaseURL)
	}

	if provider.Priority != 0 {
		t.Errorf("Expected priority=0, got %d", provider.Priority)
	}

	if !provider.Enabled {
		t.Error("Expected discovered provider enabled")
	}
}

func TestFromEnvAllVendors(t *testing.T) {
	clearLeadlensEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if len(cfg.Providers) != 3 {
		t.Fatalf("Expected 3 providers, got %d", len(cfg.Providers))
	}

	// Fixed priority order: groq, openai, ollama.
	wantOrder := []struct {
		name     string
		priority int
	}{
		{"groq", 0},
		{"openai", 1},
		{"ollama", 2},
	}

	for i, want := range wantOrder {
		if cfg.Providers[i].Name != want.name {
			t.Errorf("Provider[%d] name = %s, want %s", i, cfg.Providers[i].Name, want.name)
		}
		if cfg.Providers[i].Priority != want.priority {
			t.Errorf("Provider[%d] priority = %d, want %d", i, cfg.Providers[i].Priority, want.priority)
		}
	}

	// Ollama authenticates by reachability, not key.
	if cfg.Providers[2].APIKey != "" {
		t.Errorf("Expected empty ollama api_key, got %s", cfg.Providers[2].APIKey)
	}

	if cfg.Providers[2].BaseURL != "http://localhost:11434" {
		t.Errorf("Expected ollama base_url from OLLAMA_HOST, got %s", cfg.Providers[2].BaseURL)
	}
}

func TestFromEnvCacheOverrides(t *testing.T) {
	clearLeadlensEnv(t)
	t.Setenv("LEADLENS_CACHE_MODE", "persistent")
	t.Setenv("LEADLENS_CACHE_PATH", "/tmp/leadlens-test.db")
	t.Setenv("LEADLENS_CACHE_TTL", "600")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.Cache.Mode != "persistent" {
		t.Errorf("Expected cache mode=persistent, got %s", cfg.Cache.Mode)
	}

	if cfg.Cache.Sqlite.Path != "/tmp/leadlens-test.db" {
		t.Errorf("Expected sqlite path override, got %s", cfg.Cache.Sqlite.Path)
	}

	if cfg.Cache.TTLSeconds != 600 {
		t.Errorf("Expected ttl_seconds=600, got %d", cfg.Cache.TTLSeconds)
	}
}

func TestFromEnvDisableCache(t *testing.T) {
	clearLeadlensEnv(t)
	t.Setenv("DISABLE_CACHE", "1")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if !cfg.Cache.Disabled {
		t.Error("Expected DISABLE_CACHE to disable caching")
	}
}

func TestFromEnvQuota(t *testing.T) {
	clearLeadlensEnv(t)
	t.Setenv("LEADLENS_CALLS_PER_MINUTE", "30")
	t.Setenv("LEADLENS_CALLS_PER_DAY", "5000")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.Quota.CallsPerMinute != 30 {
		t.Errorf("Expected calls_per_minute=30, got %d", cfg.Quota.CallsPerMinute)
	}

	if cfg.Quota.CallsPerDay != 5000 {
		t.Errorf("Expected calls_per_day=5000, got %d", cfg.Quota.CallsPerDay)
	}
}
