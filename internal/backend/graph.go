package backend

import (
	"context"
	"net/url"
	"strconv"
)

// GraphOptions filter the knowledge graph.
type GraphOptions struct {
	CollectionID string
	IncludeDocs  bool
	IncludeCode  bool
}

// KnowledgeGraph fetches the graph of documents, repositories and their links.
func (c *Client) KnowledgeGraph(ctx context.Context, opts GraphOptions) (*Graph, error) {
	query := url.Values{}
	if opts.CollectionID != "" {
		query.Set("collection_id", opts.CollectionID)
	}
	query.Set("include_docs", strconv.FormatBool(opts.IncludeDocs))
	query.Set("include_code", strconv.FormatBool(opts.IncludeCode))

	var graph Graph
	if err := c.get(ctx, "/graph/knowledge-graph", query, &graph); err != nil {
		return nil, err
	}
	return &graph, nil
}

// GraphNodeDetails fetches detail for one graph node.
func (c *Client) GraphNodeDetails(ctx context.Context, nodeType, nodeID string) (map[string]any, error) {
	path := "/graph/node/" + url.PathEscape(nodeType) + "/" + url.PathEscape(nodeID)

	var details map[string]any
	if err := c.get(ctx, path, nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}
