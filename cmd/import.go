package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
	"github.com/docdash/docdash/internal/poll"
)

// newImportCmd creates the import command (factory pattern).
func newImportCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var (
		recursive bool
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "import <google-docs-url>",
		Short: "Queue a Google Doc for import",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			resp, err := client.ImportGoogleDoc(ctx, args[0], recursive)
			if err != nil {
				return err
			}
			fmt.Printf("queued job %s (%s)\n", resp.JobID, resp.Status)

			if !watch {
				return nil
			}
			return watchJob(ctx, client, logger, resp.JobID)
		},
	}

	cmd.Flags().BoolVar(&recursive, "recursive", false, "follow linked documents")
	cmd.Flags().BoolVar(&watch, "watch", false, "poll the job until it finishes")
	return cmd
}

// newImportFolderCmd creates the import-folder command.
func newImportFolderCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var subfolders bool

	cmd := &cobra.Command{
		Use:   "import-folder <drive-folder-url>",
		Short: "Queue every document in a Drive folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			resp, err := client.ImportGoogleFolder(ctx, args[0], subfolders)
			if err != nil {
				return err
			}

			// Best effort per document: queued and failed items are both
			// reported, and one failure never hides the rest.
			queued := 0
			for _, job := range resp.Jobs {
				if job.Queued() {
					queued++
					fmt.Printf("  ✓ %s (job %s)\n", job.DocumentName, job.JobID)
				} else {
					fmt.Printf("  ✗ %s: %s\n", job.DocumentName, job.Error)
				}
			}
			fmt.Printf("queued %d of %d documents\n", queued, resp.TotalDocuments)
			return nil
		},
	}

	cmd.Flags().BoolVar(&subfolders, "subfolders", false, "include subfolders")
	return cmd
}

// watchJob polls one import job until it reaches a terminal status,
// printing a progress line per poll.
func watchJob(ctx context.Context, client *backend.Client, logger log.Logger, jobID string) error {
	p := poll.New(jobID,
		func(ctx context.Context) (*backend.ImportJob, error) {
			return client.ImportJobStatus(ctx, jobID)
		},
		func(job *backend.ImportJob) string { return job.Status },
		poll.Options{Logger: logger},
	)
	p.Start(ctx)
	defer p.Cancel()

	for update := range p.Updates() {
		if update.Err != nil {
			fmt.Printf("  poll failed: %v (retrying)\n", update.Err)
			continue
		}
		job := update.Value
		fmt.Printf("  %s  %.0f%%  (%d/%d docs)\n",
			job.Status, job.ProgressPercentage, job.ProcessedDocs, job.TotalDocs)

		if update.Terminal && job.Status == backend.StatusFailed {
			return fmt.Errorf("import failed: %s", job.ErrorMessage)
		}
	}
	return ctx.Err()
}
