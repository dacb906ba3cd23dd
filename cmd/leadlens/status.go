package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/leadlens/leadlens/internal/config"
)

// maxStatusBody caps how much of the health response the status command
// reads.
const maxStatusBody = 1 << 20

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if the leadlens server is running",
	Long: `Check the health of a running leadlens server by querying its
/api/health endpoint.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	listen, err := resolveListenAddr()
	if err != nil {
		return err
	}

	healthURL := fmt.Sprintf("http://%s/api/health", listen)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	//nolint:noctx // Simple health check doesn't need context propagation
	resp, err := client.Get(healthURL)
	if err != nil {
		fmt.Printf("✗ leadlens is not running (%s)\n", listen)
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("✗ leadlens returned unexpected status: %d\n", resp.StatusCode)
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}

	status := gjson.GetBytes(body, "status").String()
	providers := providerList(body)

	if status == "healthy" {
		fmt.Printf("✓ leadlens is running (%s), providers: %s\n", listen, providers)
		return nil
	}

	fmt.Printf("✗ leadlens is %s (%s), providers: %s\n", status, listen, providers)
	return fmt.Errorf("server health is %s", status)
}

// providerList renders the health response's provider names.
func providerList(body []byte) string {
	var names []string
	for _, p := range gjson.GetBytes(body, "providers").Array() {
		names = append(names, p.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// resolveListenAddr reads the server listen address from the config
// file, falling back to environment discovery when no file exists.
func resolveListenAddr() (string, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return "", fmt.Errorf("failed to load config from environment: %w", err)
		}
		return cfg.Server.Listen, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Server.Listen, nil
}
