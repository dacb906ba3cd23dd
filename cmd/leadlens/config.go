package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadlens/leadlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration without starting the server.
Checks YAML/TOML syntax, required fields, and provider entries. With no
config file present, validates the environment-derived configuration.`,
	RunE: runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(_ *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			fmt.Printf("✗ Config validation failed: %s\n", err)
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Printf("✗ Config validation failed: %s\n", err)
			return err
		}
		fmt.Println("✓ environment configuration is valid")
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("✗ Config validation failed: %s\n", err)
		return err
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("✗ Config validation failed: %s\n", err)
		return err
	}

	fmt.Printf("✓ %s is valid\n", configPath)

	return nil
}
