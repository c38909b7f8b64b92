package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
)

// newGraphCmd creates the graph command (factory pattern).
func newGraphCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var collectionID string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Summarize the knowledge graph",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			graph, err := client.KnowledgeGraph(ctx, backend.GraphOptions{CollectionID: collectionID})
			if err != nil {
				return err
			}

			fmt.Printf("%d nodes, %d edges\n", len(graph.Nodes), len(graph.Edges))

			counts := map[string]int{}
			for _, n := range graph.Nodes {
				counts[n.Type]++
			}
			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Printf("  %-12s %d\n", t, counts[t])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&collectionID, "collection", "", "restrict to one collection")

	cmd.AddCommand(newGraphNodeCmd(cfg, logger))
	return cmd
}

func newGraphNodeCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "node <type> <id>",
		Short: "Show detail for one graph node",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			details, err := client.GraphNodeDetails(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(details))
			for k := range details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-16s %v\n", k+":", details[k])
			}
			return nil
		},
	}
}
