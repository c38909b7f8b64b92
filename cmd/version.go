package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// newVersionCmd creates the version command (factory pattern).
func newVersionCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runVersion(cfg)
		},
	}
}

func runVersion(cfg *config.Config) error {
	fmt.Printf("docdash %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  Backend: %s\n", cfg.BackendURL)
	fmt.Printf("  Search limit: %d\n", cfg.SearchLimit)
	fmt.Printf("  Request timeout: %ds\n", cfg.RequestTimeout)

	// Don't display the token itself
	if cfg.Token != "" {
		fmt.Println("  Token: configured")
	} else {
		fmt.Println("  Token: not set")
		fmt.Println()
		fmt.Println("Hint: set DOCDASH_TOKEN if your backend requires authentication")
	}
	return nil
}
