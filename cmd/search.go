package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/backend/sse"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
	"github.com/docdash/docdash/internal/search"
)

// newSearchCmd creates the search command (factory pattern).
func newSearchCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var (
		docType string
		author  string
		limit   int
		answer  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}
			searcher := search.New(client, logger)

			q := backend.SearchQuery{
				Text:    strings.Join(args, " "),
				Limit:   limit,
				DocType: docType,
				Author:  author,
			}

			resp, _, err := searcher.Results(ctx, q)
			if err != nil {
				return err
			}

			if len(resp.Results) == 0 {
				fmt.Println("no matches")
				return nil
			}

			for i, r := range resp.Results {
				fmt.Printf("%d. %s (%.2f)\n", i+1, r.DocumentTitle, r.SimilarityScore)
				if r.VaultPath != "" {
					fmt.Printf("   %s\n", r.VaultPath)
				}
				fmt.Printf("   %s\n", firstLine(r.ChunkText))
			}

			if !answer {
				return nil
			}
			// The answer is streamed only when there are results to
			// ground it on.
			session, err := searcher.StreamAnswer(ctx, q)
			if err != nil {
				return err
			}
			defer session.Close()
			fmt.Println()
			return printStream(session)
		},
	}

	cmd.Flags().StringVar(&docType, "type", "", "filter by document type")
	cmd.Flags().StringVar(&author, "author", "", "filter by author")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (0 = server default)")
	cmd.Flags().BoolVar(&answer, "answer", false, "stream an AI answer after the results")

	cmd.AddCommand(newSearchSuggestCmd(cfg, logger))
	return cmd
}

func newSearchSuggestCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <partial-query>",
		Short: "Suggest document titles for a partial query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			suggestions, err := client.SearchSuggestions(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Println(s)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "maximum suggestions")
	return cmd
}

// printStream writes a session's content chunks to stdout as they
// arrive and reports the terminal state.
func printStream(session *sse.Session) error {
	for ev := range session.Events() {
		switch {
		case ev.Err != nil:
			// Partial content already printed stays on screen.
			fmt.Fprintln(os.Stderr)
			return ev.Err
		case ev.Done:
			fmt.Println()
			return nil
		case ev.Text != "":
			fmt.Print(ev.Text)
		}
	}
	return context.Canceled
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 160 {
		s = s[:160] + "..."
	}
	return s
}
