package backend

import (
	"context"

	"github.com/docdash/docdash/internal/config"
)

// AppConfig fetches the backend's public configuration (project name,
// vault feature flag). Callers treat failure as non-fatal: the app runs
// on local defaults when this call does not succeed, and absence of
// config is equivalent to "feature disabled".
func (c *Client) AppConfig(ctx context.Context) (*config.Remote, error) {
	var remote config.Remote
	if err := c.get(ctx, "/config", nil, &remote); err != nil {
		return nil, err
	}
	return &remote, nil
}
