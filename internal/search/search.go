// Package search wraps the backend search endpoints with the client-side
// behavior the dashboard needs: a minimum query length, a short-lived
// result cache, and the two-phase results-then-answer flow.
//
// The cache is owned by the Client instance rather than being a package
// global, so tests get isolation for free. Cached entries never include
// the AI answer: answers are always re-streamed.
package search

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/backend/sse"
	"github.com/docdash/docdash/internal/log"
)

// MinQueryLength is the shortest query that triggers a dispatch. Anything
// shorter clears current results instead.
const MinQueryLength = 3

// DebounceDelay is how long input must stay quiet before a query fires.
const DebounceDelay = 600 * time.Millisecond

// CacheTTL bounds how long a cached result list may be served.
const CacheTTL = 5 * time.Minute

// ErrQueryTooShort reports a query under MinQueryLength. Callers clear
// their current results and do not hit the network.
var ErrQueryTooShort = errors.New("query too short")

// Client runs searches against the backend with result caching.
type Client struct {
	backend *backend.Client
	cache   *gocache.Cache
	logger  log.Logger
}

// New creates a search client.
func New(bc *backend.Client, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		backend: bc,
		cache:   gocache.New(CacheTTL, 10*time.Minute),
		logger:  logger,
	}
}

// cacheKey builds the lookup key from the exact query text plus every
// active filter value. Two searches differing in any filter miss each other.
func cacheKey(q backend.SearchQuery) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteByte('|')
	b.WriteString(q.DocType)
	b.WriteByte('|')
	b.WriteString(q.Author)
	b.WriteByte('|')
	b.WriteString(q.DateFrom)
	b.WriteByte('|')
	b.WriteString(q.DateTo)
	b.WriteByte('|')
	b.WriteString(strings.Join(q.Tags, ","))
	return b.String()
}

// Results returns the ranked matches for a query, serving from cache when
// a fresh-enough entry exists. The second return reports a cache hit.
//
// Queries under MinQueryLength return ErrQueryTooShort without touching
// the network or the cache.
func (c *Client) Results(ctx context.Context, q backend.SearchQuery) (*backend.SearchResponse, bool, error) {
	if utf8.RuneCountInString(strings.TrimSpace(q.Text)) < MinQueryLength {
		return nil, false, ErrQueryTooShort
	}

	key := cacheKey(q)
	if cached, found := c.cache.Get(key); found {
		resp := cached.(backend.SearchResponse)
		c.logger.Debug("search cache hit", "query", q.Text)
		return &resp, true, nil
	}

	// The result list is fetched without a generated answer; answers go
	// through the streaming channel and are never cached.
	listQuery := q
	listQuery.GenerateAnswer = false

	resp, err := c.backend.Search(ctx, listQuery)
	if err != nil {
		return nil, false, err
	}

	entry := *resp
	entry.AIAnswer = "" // belt and braces: cached entries carry no answer
	c.cache.Set(key, entry, gocache.DefaultExpiration)

	return resp, false, nil
}

// StreamAnswer opens the answer stream for a query. Callers only invoke
// this after Results returned at least one match; an answer over zero
// context is useless and the backend would refuse it anyway.
func (c *Client) StreamAnswer(ctx context.Context, q backend.SearchQuery) (*sse.Session, error) {
	return c.backend.StreamAnswer(ctx, q)
}

// Invalidate drops every cached entry. Used after imports complete, when
// stale results would hide the new documents.
func (c *Client) Invalidate() {
	c.cache.Flush()
}
