// Package cmd provides the CLI commands for docdash.
//
// Commands:
//   - (default): interactive Bubble Tea dashboard
//   - import / import-folder: queue Google Drive imports
//   - search: one-shot semantic search, optionally with a streamed answer
//   - docs, jobs, collections, repos, graph: listings
//   - review: stream an AI document review to stdout
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/history"
	"github.com/docdash/docdash/internal/log"
	"github.com/docdash/docdash/internal/observability"
	"github.com/docdash/docdash/internal/search"
	"github.com/docdash/docdash/internal/tui"
)

// Execute is the main entry point for docdash.
func Execute() error {
	// Logger is initialized once at the entry point. DEBUG env enables
	// debug-level output; logs go to stderr so they never corrupt the TUI.
	logger := log.New(log.Config{Level: logLevel(), JSON: false})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	return newRootCmd(cfg, logger).Execute()
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newRootCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "docdash",
		Short: "docdash - terminal dashboard for the knowledge base",
		Long: `docdash is a terminal dashboard for a document knowledge base.

It imports Google Docs, tracks import jobs, searches the indexed
documents semantically and streams AI answers and reviews, all against
a running backend API.

Run docdash with no arguments to open the interactive dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cfg, logger)
		},
	}

	root.AddCommand(
		newImportCmd(cfg, logger),
		newImportFolderCmd(cfg, logger),
		newSearchCmd(cfg, logger),
		newDocsCmd(cfg, logger),
		newJobsCmd(cfg, logger),
		newReviewCmd(cfg, logger),
		newCollectionsCmd(cfg, logger),
		newReposCmd(cfg, logger),
		newGraphCmd(cfg, logger),
		newRecentsCmd(),
		newVersionCmd(cfg),
	)
	return root
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newBackendClient builds the API client from configuration.
func newBackendClient(cfg *config.Config, logger log.Logger) (*backend.Client, error) {
	return backend.New(backend.Options{
		BaseURL:   cfg.BackendURL,
		Token:     cfg.Token,
		UserEmail: cfg.UserEmail,
		Timeout:   cfg.Timeout(),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Logger:    logger,
	})
}

// runDashboard starts the interactive TUI.
func runDashboard(cfg *config.Config, logger log.Logger) error {
	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			AgentHost:   cfg.Tracing.AgentHost,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err == nil {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return err
	}

	// History is optional: a read-only home directory costs recents, not
	// the dashboard.
	recents, err := history.DefaultStore()
	if err != nil {
		logger.Warn("history disabled", "error", err)
		recents = nil
	}

	model, err := tui.New(ctx, tui.Options{
		Client:  client,
		Search:  search.New(client, logger),
		History: recents,
		Config:  cfg,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating dashboard: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard exited: %w", err)
	}
	return nil
}
