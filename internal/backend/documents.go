package backend

import (
	"context"
	"net/url"
	"strconv"
)

// ListDocuments fetches documents without content bodies.
func (c *Client) ListDocuments(ctx context.Context, limit, offset int) ([]Document, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var docs []Document
	if err := c.get(ctx, "/documents/", query, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument fetches one document with full content.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, "/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document from the knowledge base.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.del(ctx, "/documents/"+url.PathEscape(id), nil)
}
