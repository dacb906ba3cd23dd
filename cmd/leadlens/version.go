package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadlens/leadlens/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version, git commit, and build date.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("leadlens %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
