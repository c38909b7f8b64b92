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

// newReviewCmd creates the review command (factory pattern).
func newReviewCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var (
		reviewType string
		model      string
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "review <document-id>",
		Short: "Stream an AI review of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			if model == "" {
				model = cfg.ReviewModel
			}
			session, err := client.StreamReview(ctx, args[0], backend.StreamReviewOptions{
				ReviewType: reviewType,
				Model:      model,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			if err := printStream(session); err != nil {
				return err
			}
			if !save {
				return nil
			}

			doc, err := client.GetDocument(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := client.SaveReview(ctx, backend.SaveReviewRequest{
				DocumentID:      doc.ID,
				DocumentTitle:   doc.Title,
				ReviewType:      reviewType,
				ReviewedContent: session.Buffer(),
				Model:           model,
			})
			if err != nil {
				return err
			}
			if resp.VaultPath != "" {
				fmt.Println("saved to", resp.VaultPath)
			} else {
				fmt.Println(resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewType, "type", backend.ReviewComprehensive, "review type (comprehensive, technical, editorial)")
	cmd.Flags().StringVar(&model, "model", "", "override the review model")
	cmd.Flags().BoolVar(&save, "save", false, "save the finished review to the note vault")

	cmd.AddCommand(
		newReviewStartCmd(cfg, logger),
		newReviewStatusCmd(cfg, logger),
		newReviewHistoryCmd(cfg, logger),
	)
	return cmd
}

// newReviewStartCmd queues a background review job instead of streaming
// it live. Useful for long reviews that outlast a terminal session.
func newReviewStartCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var (
		reviewType string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "start <document-id>",
		Short: "Queue a background review job",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			resp, err := client.CreateReview(ctx, backend.ReviewRequest{
				DocumentID: args[0],
				ReviewType: reviewType,
			})
			if err != nil {
				return err
			}
			fmt.Printf("queued review %s (%s)\n", resp.ReviewID, resp.Status)

			if !watch {
				return nil
			}
			return watchReview(ctx, client, logger, resp.ReviewID)
		},
	}

	cmd.Flags().StringVar(&reviewType, "type", backend.ReviewComprehensive, "review type (comprehensive, technical, editorial)")
	cmd.Flags().BoolVar(&watch, "watch", false, "poll the review until it finishes")
	return cmd
}

func newReviewStatusCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status <review-id>",
		Short: "Show the status of a review job",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			review, err := client.ReviewStatus(ctx, args[0])
			if err != nil {
				return err
			}
			printReview(review)
			return nil
		},
	}
}

func printReview(r *backend.Review) {
	fmt.Printf("Review:    %s\n", r.ReviewID)
	fmt.Printf("Status:    %s\n", r.Status)
	fmt.Printf("Type:      %s\n", r.ReviewType)
	fmt.Printf("Document:  %s\n", r.OriginalDocumentTitle)
	fmt.Printf("Comments:  %d\n", r.TotalComments)
	if r.ErrorMessage != "" {
		fmt.Printf("Error:     %s\n", r.ErrorMessage)
	}
}

// watchReview polls a review job until it reaches a terminal status,
// on the same backoff schedule import jobs use.
func watchReview(ctx context.Context, client *backend.Client, logger log.Logger, reviewID string) error {
	p := poll.New(reviewID,
		func(ctx context.Context) (*backend.Review, error) {
			return client.ReviewStatus(ctx, reviewID)
		},
		func(r *backend.Review) string { return r.Status },
		poll.Options{Logger: logger},
	)
	p.Start(ctx)
	defer p.Cancel()

	for update := range p.Updates() {
		if update.Err != nil {
			fmt.Printf("  poll failed: %v (retrying)\n", update.Err)
			continue
		}
		r := update.Value
		fmt.Printf("  %s  %d comments\n", r.Status, r.TotalComments)

		if update.Terminal && r.Status == backend.StatusFailed {
			return fmt.Errorf("review failed: %s", r.ErrorMessage)
		}
	}
	return ctx.Err()
}

func newReviewHistoryCmd(cfg *config.Config, logger log.Logger) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [document-id]",
		Short: "List past reviews",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := newBackendClient(cfg, logger)
			if err != nil {
				return err
			}

			documentID := ""
			if len(args) == 1 {
				documentID = args[0]
			}
			reviews, err := client.ReviewHistory(ctx, documentID, "", limit)
			if err != nil {
				return err
			}
			for _, r := range reviews {
				fmt.Printf("%s  %-10s  %-13s  %s\n",
					r.ReviewID, r.Status, r.ReviewType, r.OriginalDocumentTitle)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum reviews")
	return cmd
}
