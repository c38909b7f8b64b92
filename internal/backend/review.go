package backend

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/docdash/docdash/internal/backend/sse"
)

// Review types accepted by the backend.
const (
	ReviewComprehensive = "comprehensive"
	ReviewTechnical     = "technical"
	ReviewEditorial     = "editorial"
)

// CreateReview queues an AI review job for a document. The review is
// processed in the background; poll ReviewStatus with the returned id.
func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	if req.ReviewType == "" {
		req.ReviewType = ReviewComprehensive
	}

	var resp ReviewResponse
	path := "/review/document/" + url.PathEscape(req.DocumentID)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReviewStatus fetches the status of one review job.
func (c *Client) ReviewStatus(ctx context.Context, reviewID string) (*Review, error) {
	var review Review
	if err := c.get(ctx, "/review/jobs/"+url.PathEscape(reviewID), nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// ReviewHistory lists past reviews, optionally filtered by document or status.
func (c *Client) ReviewHistory(ctx context.Context, documentID, status string, limit int) ([]Review, error) {
	query := url.Values{}
	if documentID != "" {
		query.Set("document_id", documentID)
	}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var reviews []Review
	if err := c.get(ctx, "/review/history", query, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// StreamReviewOptions configure a live review stream.
type StreamReviewOptions struct {
	ReviewType string
	Personas   []string
	Model      string
}

// StreamReview opens the SSE channel for a live document review.
// The returned session must be closed by the caller.
func (c *Client) StreamReview(ctx context.Context, documentID string, opts StreamReviewOptions) (*sse.Session, error) {
	query := url.Values{}
	if opts.ReviewType != "" {
		query.Set("review_type", opts.ReviewType)
	}
	if len(opts.Personas) > 0 {
		query.Set("personas", strings.Join(opts.Personas, ","))
	}
	if opts.Model != "" {
		query.Set("model", opts.Model)
	}

	path := "/review/stream/" + url.PathEscape(documentID)
	return sse.Open(ctx, sse.Config{Logger: c.logger}, func(ctx context.Context) (*sse.Connection, error) {
		resp, err := c.openStream(ctx, path, query)
		if err != nil {
			return nil, err
		}
		return &sse.Connection{Body: resp.Body}, nil
	})
}

// SaveReview persists a finished review to the note vault. When the vault
// feature is disabled server-side the call still succeeds, with an empty
// vault path.
func (c *Client) SaveReview(ctx context.Context, req SaveReviewRequest) (*SaveReviewResponse, error) {
	var resp SaveReviewResponse
	if err := c.post(ctx, "/review/save", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
