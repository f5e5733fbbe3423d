package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torigami/kokoro/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(nil, config.SearchConfig{
		APIKey:         "test-key",
		EngineID:       "test-cx",
		BaseURL:        srv.URL,
		TimeoutSeconds: 2,
	})
}

func TestSearchDisabledWithoutCredentials(t *testing.T) {
	c := NewClient(nil, config.SearchConfig{})
	assert.False(t, c.Enabled())
	assert.Nil(t, c.Search(context.Background(), "anything", 3))
}

func TestSearchReturnsResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-cx", r.URL.Query().Get("cx"))
		assert.Equal(t, "眠れない", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("num"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Sleep basics","snippet":"s1","link":"https://a"},
			{"title":"Relaxation","snippet":"s2","link":"https://b"},
			{"title":"Third","snippet":"s3","link":"https://c"},
			{"title":"Fourth","snippet":"s4","link":"https://d"}
		]}`))
	})

	results := c.Search(context.Background(), "眠れない", 3)
	require.Len(t, results, 3)
	assert.Equal(t, Result{Title: "Sleep basics", Snippet: "s1", Link: "https://a"}, results[0])
}

func TestSearchServerErrorYieldsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	assert.Empty(t, c.Search(context.Background(), "query", 3))
}

func TestSearchMalformedBodyYieldsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	assert.Empty(t, c.Search(context.Background(), "query", 3))
}

func TestSearchEmptyQuerySkipsRequest(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	})
	assert.Nil(t, c.Search(context.Background(), "   ", 3))
}
