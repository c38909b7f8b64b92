package backend

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/docdash/docdash/internal/backend/sse"
)

// SearchQuery is a semantic search request with optional filters.
type SearchQuery struct {
	Text           string
	Limit          int
	GenerateAnswer bool

	// Filters. Zero values mean "no filter".
	DocType  string
	Author   string
	DateFrom string // YYYY-MM-DD
	DateTo   string // YYYY-MM-DD
	Tags     []string
}

// Values encodes the query for the /search endpoint.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	v.Set("q", q.Text)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	v.Set("generate_answer", strconv.FormatBool(q.GenerateAnswer))
	if q.DocType != "" {
		v.Set("doc_type", q.DocType)
	}
	if q.Author != "" {
		v.Set("author", q.Author)
	}
	if q.DateFrom != "" {
		v.Set("date_from", q.DateFrom)
	}
	if q.DateTo != "" {
		v.Set("date_to", q.DateTo)
	}
	if len(q.Tags) > 0 {
		v.Set("tags", strings.Join(q.Tags, ","))
	}
	return v
}

// Search runs a semantic search and returns ranked matches.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, "/search", q.Values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchFilters fetches the available advanced-filter values.
func (c *Client) SearchFilters(ctx context.Context) (*FilterOptions, error) {
	var opts FilterOptions
	if err := c.get(ctx, "/search/filters", nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// SearchSuggestions fetches title suggestions for a partial query.
func (c *Client) SearchSuggestions(ctx context.Context, partial string, limit int) ([]string, error) {
	query := url.Values{}
	query.Set("q", partial)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var suggestions []string
	if err := c.get(ctx, "/search/suggestions", query, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// StreamAnswer opens the SSE channel for a RAG-generated answer.
// The answer is generated fresh on every call; it is never cached.
// The returned session must be closed by the caller.
func (c *Client) StreamAnswer(ctx context.Context, q SearchQuery) (*sse.Session, error) {
	query := url.Values{}
	query.Set("q", q.Text)
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	return sse.Open(ctx, sse.Config{Logger: c.logger}, func(ctx context.Context) (*sse.Connection, error) {
		resp, err := c.openStream(ctx, "/search/answer-stream", query)
		if err != nil {
			return nil, err
		}
		return &sse.Connection{Body: resp.Body}, nil
	})
}
