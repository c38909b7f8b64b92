package backend

import (
	"context"
	"net/url"
	"strconv"
)

// ListRepositories fetches all ingested code repositories.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	if err := c.get(ctx, "/code/repositories", nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepository fetches one repository.
func (c *Client) GetRepository(ctx context.Context, id string) (*Repository, error) {
	var repo Repository
	if err := c.get(ctx, "/code/repositories/"+url.PathEscape(id), nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// RepositoryChunks fetches the indexed chunks of a repository.
func (c *Client) RepositoryChunks(ctx context.Context, id string, limit int) ([]CodeChunk, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var chunks []CodeChunk
	if err := c.get(ctx, "/code/repositories/"+url.PathEscape(id)+"/chunks", query, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// CodeStats fetches aggregate statistics over all repositories.
func (c *Client) CodeStats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.get(ctx, "/code/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
