package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/history"
)

// newRecentsCmd creates the recents command (factory pattern). It reads
// the same history file the dashboard appends to.
func newRecentsCmd() *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "recents",
		Short: "List recent searches and imports",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := history.DefaultStore()
			if err != nil {
				return err
			}

			entries, err := store.Recent(kind, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  %-7s  %s\n",
					e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (search, import)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries")
	return cmd
}
