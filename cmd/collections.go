package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
)

// newCollectionsCmd creates the collections command (factory pattern).
func newCollectionsCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage document collections",
	}

	collectionsCmd.AddCommand(newCollectionsListCmd(cfg, logger))
	collectionsCmd.AddCommand(newCollectionsShowCmd(cfg, logger))
	collectionsCmd.AddCommand(newCollectionsCreateCmd(cfg, logger))
	collectionsCmd.AddCommand(newCollectionsDeleteCmd(cfg, logger))
	collectionsCmd.AddCommand(newCollectionsAddCmd(cfg, logger))
	collectionsCmd.AddCommand(newCollectionsRemoveCmd(cfg, logger))
	return collectionsCmd
}

func newCollectionsShowCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show <collection-id>",
		Short: "Show a collection and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			col, err := client.GetCollection(ctx, args[0])
			if err != nil {
				return err
			}
			items, err := client.CollectionItems(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s\n", col.Icon, col.Name)
			if col.Description != "" {
				fmt.Println(col.Description)
			}
			fmt.Println()
			for _, doc := range items.Documents {
				fmt.Printf("  doc   %s  [%s]  %s\n", doc.ID, doc.DocType, doc.Title)
			}
			for _, repo := range items.Repositories {
				fmt.Printf("  repo  %s  [%s]  %s\n", repo.ID, repo.PrimaryLanguage, repo.Name)
			}
			return nil
		},
	}
}

func newCollectionsListCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			collections, err := client.ListCollections(ctx)
			if err != nil {
				return err
			}
			for _, col := range collections {
				fmt.Printf("%s  %s  (%d docs, %d repos)\n",
					col.ID, col.Name, col.DocumentCount, col.RepositoryCount)
			}
			return nil
		},
	}
}

func newCollectionsCreateCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var description, color, icon string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			col, err := client.CreateCollection(ctx, backend.CollectionCreate{
				Name:        args[0],
				Description: description,
				Color:       color,
				Icon:        icon,
			})
			if err != nil {
				return err
			}
			fmt.Println("created", col.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "collection description")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	return cmd
}

func newCollectionsDeleteCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection-id>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			if err := client.DeleteCollection(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}
}

func newCollectionsAddCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "add <collection-id> <document-id>",
		Short: "Add a document to a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			if err := client.AddDocumentToCollection(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("added %s to %s\n", args[1], args[0])
			return nil
		},
	}
}

func newCollectionsRemoveCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <collection-id> <document-id>",
		Short: "Remove a document from a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			if err := client.RemoveDocumentFromCollection(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}
