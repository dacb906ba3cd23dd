package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStatusConfig(t *testing.T, dir, listenAddr string) string {
	t.Helper()
	configPath := filepath.Join(dir, defaultConfigFile)
	configContent := "server:\n  listen: \"" + listenAddr + "\"\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatal(err)
	}
	return configPath
}

// setCfgFile points the global config flag at path for one test.
func setCfgFile(t *testing.T, path string) {
	t.Helper()
	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
}

func TestRunStatusHealthy(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","providers":["groq-primary","ollama-local"]}`))
	}))
	defer srv.Close()

	listenAddr := strings.TrimPrefix(srv.URL, "http://")
	setCfgFile(t, writeStatusConfig(t, t.TempDir(), listenAddr))

	if err := runStatus(nil, nil); err != nil {
		t.Errorf("Expected healthy status, got error: %v", err)
	}
}

func TestRunStatusDegraded(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"degraded","providers":["groq-primary"]}`))
	}))
	defer srv.Close()

	listenAddr := strings.TrimPrefix(srv.URL, "http://")
	setCfgFile(t, writeStatusConfig(t, t.TempDir(), listenAddr))

	err := runStatus(nil, nil)
	if err == nil {
		t.Fatal("Expected error for degraded server")
	}
	if !strings.Contains(err.Error(), "degraded") {
		t.Errorf("Expected degraded in error, got: %v", err)
	}
}

func TestRunStatusUnexpectedStatusCode(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	listenAddr := strings.TrimPrefix(srv.URL, "http://")
	setCfgFile(t, writeStatusConfig(t, t.TempDir(), listenAddr))

	err := runStatus(nil, nil)
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Expected status code in error, got: %v", err)
	}
}

func TestRunStatusNotRunning(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)

	// Grab a port that nothing listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	listenAddr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatal(err)
	}

	setCfgFile(t, writeStatusConfig(t, t.TempDir(), listenAddr))

	err = runStatus(nil, nil)
	if err == nil {
		t.Fatal("Expected error for unreachable server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("Expected not reachable in error, got: %v", err)
	}
}

func TestResolveListenAddrFromFile(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies global cfgFile)

	setCfgFile(t, writeStatusConfig(t, t.TempDir(), "127.0.0.1:9321"))

	listen, err := resolveListenAddr()
	if err != nil {
		t.Fatalf("resolveListenAddr failed: %v", err)
	}
	if listen != "127.0.0.1:9321" {
		t.Errorf("Expected configured listen address, got %q", listen)
	}
}

func TestProviderList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"two providers", `{"providers":["groq-primary","ollama-local"]}`, "groq-primary, ollama-local"},
		{"one provider", `{"providers":["groq-primary"]}`, "groq-primary"},
		{"empty list", `{"providers":[]}`, "none"},
		{"missing field", `{}`, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := providerList([]byte(tt.body)); got != tt.want {
				t.Errorf("providerList(%s) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
