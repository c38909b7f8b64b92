package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/log"
)

// newDocsCmd creates the docs command (factory pattern).
func newDocsCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage knowledge-base documents",
	}

	docsCmd.AddCommand(newDocsListCmd(cfg, logger))
	docsCmd.AddCommand(newDocsShowCmd(cfg, logger))
	docsCmd.AddCommand(newDocsDeleteCmd(cfg, logger))
	return docsCmd
}

func newDocsListCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			docs, err := client.ListDocuments(ctx, limit, offset)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				fmt.Printf("%s  [%s]  %s\n", doc.ID, doc.DocType, doc.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum documents")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}

func newDocsShowCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			doc, err := client.GetDocument(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Title:   %s\n", doc.Title)
			fmt.Printf("Type:    %s\n", doc.DocType)
			fmt.Printf("Status:  %s\n", doc.Status)
			fmt.Printf("Vault:   %s\n", doc.VaultPath)
			if doc.Author != "" {
				fmt.Printf("Author:  %s\n", doc.Author)
			}
			if doc.Summary != "" {
				fmt.Printf("\n%s\n", doc.Summary)
			}
			return nil
		},
	}
}

func newDocsDeleteCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			if err := client.DeleteDocument(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}
}
