package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdash/docdash/internal/backend"
)

// newSearchServer returns a backend stub that counts /search hits and
// always answers with one result plus an AI answer.
func newSearchServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		resp := backend.SearchResponse{
			Query: r.URL.Query().Get("q"),
			Results: []backend.SearchResult{
				{DocumentID: "doc-1", DocumentTitle: "Payments PRD", ChunkText: "chunk", SimilarityScore: 0.92},
			},
			TotalResults: 1,
			AIAnswer:     "an answer that must never be cached",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	bc, err := backend.New(backend.Options{BaseURL: baseURL})
	require.NoError(t, err)
	return New(bc, nil)
}

func TestResults_RejectsShortQueries(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, &calls)
	c := newTestClient(t, srv.URL)

	for _, text := range []string{"", "a", "ab", "  ab  "} {
		_, _, err := c.Results(context.Background(), backend.SearchQuery{Text: text})
		assert.ErrorIs(t, err, ErrQueryTooShort, "query %q", text)
	}
	assert.Equal(t, int64(0), calls.Load(), "short queries must never hit the network")
}

func TestResults_MinLengthCountsRunes(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, &calls)
	c := newTestClient(t, srv.URL)

	// Three runes, more than three bytes.
	_, _, err := c.Results(context.Background(), backend.SearchQuery{Text: "知識庫"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestResults_ServesFromCacheWithinTTL(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, &calls)
	c := newTestClient(t, srv.URL)

	q := backend.SearchQuery{Text: "payment flow"}

	first, cached, err := c.Results(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, first.Results, 1)

	second, cached, err := c.Results(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.Results, second.Results)

	assert.Equal(t, int64(1), calls.Load(), "repeat query within TTL must not refetch")
}

func TestResults_FilterChangeMissesCache(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, &calls)
	c := newTestClient(t, srv.URL)

	base := backend.SearchQuery{Text: "payment flow"}
	_, _, err := c.Results(context.Background(), base)
	require.NoError(t, err)

	variants := []backend.SearchQuery{
		{Text: "payment flow", DocType: "prd"},
		{Text: "payment flow", Author: "dana"},
		{Text: "payment flow", DateFrom: "2026-01-01"},
		{Text: "payment flow", Tags: []string{"billing"}},
	}
	for _, q := range variants {
		_, cached, err := c.Results(context.Background(), q)
		require.NoError(t, err)
		assert.False(t, cached, "query %+v must miss the cache", q)
	}
	assert.Equal(t, int64(1+len(variants)), calls.Load())
}

func TestResults_AnswerNeverCached(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, &calls)
	c := newTestClient(t, srv.URL)

	q := backend.SearchQuery{Text: "payment flow"}
	_, _, err := c.Results(context.Background(), q)
	require.NoError(t, err)

	cachedResp, cached, err := c.Results(context.Background(), q)
	require.NoError(t, err)
	require.True(t, cached)
	assert.Empty(t, cachedResp.AIAnswer, "cached entries must not carry an answer")
}

func TestInvalidate_DropsEverything(t *testing.T) {
	var calls atomic.Int64
	srv := newSearchServer(t, &calls)
	c := newTestClient(t, srv.URL)

	q := backend.SearchQuery{Text: "payment flow"}
	_, _, err := c.Results(context.Background(), q)
	require.NoError(t, err)

	c.Invalidate()

	_, cached, err := c.Results(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, cached, "Invalidate must force a refetch")
	assert.Equal(t, int64(2), calls.Load())
}

func TestResults_BackendErrorNotCached(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Search failed: embedding service unavailable"}`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	q := backend.SearchQuery{Text: "payment flow"}
	_, _, err := c.Results(context.Background(), q)
	require.Error(t, err)

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Search failed: embedding service unavailable", apiErr.Detail)

	// Errors are not cached; the next call tries again.
	_, _, err = c.Results(context.Background(), q)
	require.Error(t, err)
	assert.Equal(t, int64(2), calls.Load())
}
