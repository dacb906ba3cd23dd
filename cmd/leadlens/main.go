// Package main is the entry point for leadlens.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang/v2"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "config.yaml"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "leadlens",
	Short: "AI-powered lead analysis service",
	Long: `leadlens is an HTTP service that analyzes sales leads with AI: sentiment
scoring for replies, outreach email generation, and website insight
extraction. Requests fan out across configured providers (Groq, OpenAI,
Ollama, Bedrock) with priority failover, shared rate limiting, and
response caching.`,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/leadlens/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
