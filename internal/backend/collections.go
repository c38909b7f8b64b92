package backend

import (
	"context"
	"net/url"
)

// ListCollections fetches all collections.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var collections []Collection
	if err := c.get(ctx, "/collections/", nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// GetCollection fetches one collection.
func (c *Client) GetCollection(ctx context.Context, id string) (*Collection, error) {
	var collection Collection
	if err := c.get(ctx, "/collections/"+url.PathEscape(id), nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// CreateCollection creates a collection.
func (c *Client) CreateCollection(ctx context.Context, req CollectionCreate) (*Collection, error) {
	var collection Collection
	if err := c.post(ctx, "/collections/", req, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// DeleteCollection removes a collection. Its documents are untouched.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.del(ctx, "/collections/"+url.PathEscape(id), nil)
}

// CollectionItems fetches the documents and repositories in a collection.
func (c *Client) CollectionItems(ctx context.Context, id string) (*CollectionItems, error) {
	var items CollectionItems
	if err := c.get(ctx, "/collections/"+url.PathEscape(id)+"/items", nil, &items); err != nil {
		return nil, err
	}
	return &items, nil
}

// AddDocumentToCollection links a document into a collection.
func (c *Client) AddDocumentToCollection(ctx context.Context, collectionID, documentID string) error {
	path := "/collections/" + url.PathEscape(collectionID) + "/documents/" + url.PathEscape(documentID)
	return c.post(ctx, path, nil, nil)
}

// RemoveDocumentFromCollection unlinks a document from a collection.
func (c *Client) RemoveDocumentFromCollection(ctx context.Context, collectionID, documentID string) error {
	path := "/collections/" + url.PathEscape(collectionID) + "/documents/" + url.PathEscape(documentID)
	return c.del(ctx, path, nil)
}
