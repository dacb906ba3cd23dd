package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leadlens/leadlens/internal/config"
)

// newMockInitCmd creates a cobra.Command with the output and force flags
// pre-registered, matching the flags used by the init command.
func newMockInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "init",
	}
	cmd.Flags().StringP("output", "o", "", "output path")
	cmd.Flags().Bool("force", false, "overwrite existing")
	return cmd
}

func TestRunConfigInitDefaultPath(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies HOME env var)

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cmd := newMockInitCmd()
	if err := runConfigInit(cmd, nil); err != nil {
		t.Fatalf("runConfigInit failed: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".config", "leadlens", defaultConfigFile)
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		t.Fatalf("Failed to read generated config: %v", err)
	}

	content := string(data)
	for _, section := range []string{"server:", "providers:", "quota:", "cache:"} {
		if !strings.Contains(content, section) {
			t.Errorf("Expected config to contain %q section", section)
		}
	}
}

func TestGeneratedConfigLoadsAndValidates(t *testing.T) {
	// Note: Cannot use t.Parallel() (modifies GROQ_API_KEY env var)

	t.Setenv("GROQ_API_KEY", "test-key-1")

	output := filepath.Join(t.TempDir(), defaultConfigFile)
	cmd := newMockInitCmd()
	if err := cmd.Flags().Set("output", output); err != nil {
		t.Fatal(err)
	}

	if err := runConfigInit(cmd, nil); err != nil {
		t.Fatalf("runConfigInit failed: %v", err)
	}

	cfg, err := config.Load(output)
	if err != nil {
		t.Fatalf("Generated config failed to load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Generated config failed validation: %v", err)
	}

	if cfg.Providers[0].APIKey != "test-key-1" {
		t.Errorf("Expected env-expanded api_key, got %q", cfg.Providers[0].APIKey)
	}
}

func TestRunConfigInitExplicitOutput(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "custom", "leadlens.yaml")
	cmd := newMockInitCmd()
	if err := cmd.Flags().Set("output", output); err != nil {
		t.Fatal(err)
	}

	if err := runConfigInit(cmd, nil); err != nil {
		t.Fatalf("runConfigInit failed: %v", err)
	}

	if _, err := os.Stat(output); os.IsNotExist(err) {
		t.Error("Expected config file to be created at explicit output path")
	}
}

func TestRunConfigInitRefusesOverwrite(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), defaultConfigFile)
	if err := os.WriteFile(output, []byte("existing: content\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newMockInitCmd()
	if err := cmd.Flags().Set("output", output); err != nil {
		t.Fatal(err)
	}

	err := runConfigInit(cmd, nil)
	if err == nil {
		t.Fatal("Expected error for existing config file")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("Expected force hint in error, got: %v", err)
	}

	// Existing content untouched
	data, readErr := os.ReadFile(filepath.Clean(output))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != "existing: content\n" {
		t.Error("Existing config should not have been modified")
	}
}

func TestRunConfigInitForceOverwrites(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), defaultConfigFile)
	if err := os.WriteFile(output, []byte("existing: content\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newMockInitCmd()
	if err := cmd.Flags().Set("output", output); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("force", "true"); err != nil {
		t.Fatal(err)
	}

	if err := runConfigInit(cmd, nil); err != nil {
		t.Fatalf("runConfigInit with --force failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Clean(output))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "providers:") {
		t.Error("Expected config to have been overwritten with the template")
	}
}
