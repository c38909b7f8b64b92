package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
)

// newReposCmd creates the repos command (factory pattern).
func newReposCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	reposCmd := &cobra.Command{
		Use:   "repos",
		Short: "Inspect indexed code repositories",
	}

	reposCmd.AddCommand(newReposListCmd(cfg, logger))
	reposCmd.AddCommand(newReposShowCmd(cfg, logger))
	reposCmd.AddCommand(newReposChunksCmd(cfg, logger))
	reposCmd.AddCommand(newReposStatsCmd(cfg, logger))
	return reposCmd
}

func newReposShowCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show <repository-id>",
		Short: "Show one repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			repo, err := client.GetRepository(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Name:       %s\n", repo.Name)
			fmt.Printf("Language:   %s\n", repo.PrimaryLanguage)
			fmt.Printf("Path:       %s\n", repo.LocalPath)
			fmt.Printf("Files:      %d\n", repo.TotalFiles)
			fmt.Printf("Functions:  %d\n", repo.TotalFunctions)
			fmt.Printf("Classes:    %d\n", repo.TotalClasses)
			fmt.Printf("LOC:        %d\n", repo.LinesOfCode)
			if repo.LastSynced != "" {
				fmt.Printf("Synced:     %s\n", repo.LastSynced)
			}
			return nil
		},
	}
}

func newReposStatsCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate code statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			stats, err := client.CodeStats(ctx)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-20s %v\n", k+":", stats[k])
			}
			return nil
		},
	}
}

func newReposListCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			repos, err := client.ListRepositories(ctx)
			if err != nil {
				return err
			}
			for _, repo := range repos {
				fmt.Printf("%s  %-20s  %s  %d files  %d LOC\n",
					repo.ID, repo.Name, repo.PrimaryLanguage, repo.TotalFiles, repo.LinesOfCode)
			}
			return nil
		},
	}
}

func newReposChunksCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "chunks <repository-id>",
		Short: "List a repository's indexed chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			chunks, err := client.RepositoryChunks(ctx, args[0], limit)
			if err != nil {
				return err
			}
			for _, chunk := range chunks {
				fmt.Printf("%-10s  %s:%d-%d  %s\n",
					chunk.ChunkType, chunk.FilePath, chunk.StartLine, chunk.EndLine, chunk.ChunkName)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum chunks")
	return cmd
}
