package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// defaultConfigTemplate is the starter config written by `config init`.
// API keys resolve through ${ENV_VAR} expansion at load time so secrets
// stay out of the file.
const defaultConfigTemplate = `# leadlens configuration

server:
  listen: "127.0.0.1:8080"
  # max_concurrent: 0      # 0 = unlimited in-flight requests
  # max_body_bytes: 0      # 0 = default request body cap
  # enable_http2: false    # HTTP/2 cleartext (h2c)

logging:
  level: info    # debug, info, warn, error
  format: json   # json, console, pretty

quota:
  calls_per_minute: 60
  calls_per_day: 14400
  # strategy: sliding_window   # sliding_window, token_bucket

routing:
  retry_backoff_ms: 2000
  # request_timeout_ms: 60000

cache:
  mode: single      # single, cluster, sqlite, disabled
  ttl_seconds: 7200

providers:
  - name: groq-primary
    type: groq
    api_key: ${GROQ_API_KEY}
    model: llama-3.1-8b-instant
    priority: 0
    enabled: true
  - name: ollama-local
    type: ollama
    model: llama3.1
    priority: 1
    enabled: false
  # - name: openai-fallback
  #   type: openai
  #   api_key: ${OPENAI_API_KEY}
  #   model: gpt-4o-mini
  #   priority: 2
  #   enabled: true
  # - name: bedrock-backup
  #   type: bedrock
  #   aws_region: us-east-1
  #   model: anthropic.claude-3-haiku-20240307-v1:0
  #   priority: 3
  #   enabled: true
`

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config file",
	Long:  `Generate a default leadlens configuration file at ~/.config/leadlens/config.yaml`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringP("output", "o", "", "output path (default: ~/.config/leadlens/config.yaml)")
	configInitCmd.Flags().Bool("force", false, "overwrite existing config file")
}

// runConfigInit writes the starter config to the provided output path
// or, if none is given, to ~/.config/leadlens/config.yaml. Parent
// directories are created as needed. Refuses to overwrite an existing
// file unless --force is set.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	if output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		output = filepath.Join(home, ".config", "leadlens", defaultConfigFile)
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", output)
	}

	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(output, []byte(defaultConfigTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("✓ Config file created at %s\n", output)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set GROQ_API_KEY environment variable")
	fmt.Println("  2. Edit the config file to customize providers and quotas")
	fmt.Println("  3. Validate with: leadlens config validate")
	fmt.Println("  4. Start the server: leadlens serve")

	return nil
}
