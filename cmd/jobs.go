package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
)

// newJobsCmd creates the jobs command (factory pattern).
func newJobsCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect import jobs",
	}

	jobsCmd.AddCommand(newJobsListCmd(cfg, logger))
	jobsCmd.AddCommand(newJobsWatchCmd(cfg, logger))
	return jobsCmd
}

func newJobsListCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent import jobs",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			jobs, err := client.ListImportJobs(ctx, limit)
			if err != nil {
				return err
			}
			for _, job := range jobs {
				fmt.Printf("%s  %-10s  %3.0f%%  %s\n",
					job.JobID, job.Status, job.ProgressPercentage, job.StartedAt)
				if job.ErrorMessage != "" {
					fmt.Printf("  error: %s\n", job.ErrorMessage)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum jobs")
	return cmd
}

func newJobsWatchCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Poll a job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}
			return watchJob(ctx, client, logger, args[0])
		},
	}
}
