// Package search provides an optional Google Custom Search client used to
// enrich prompts with external references. When credentials are unset the
// client is disabled and the rest of the pipeline is unaffected.
package search

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/torigami/kokoro/internal/config"
)

// Result is one external reference (title, snippet, link).
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Client calls the Google Custom Search JSON API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	engineID   string
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a search client from config. The client is usable even
// when disabled: Search then returns no results.
func NewClient(log *slog.Logger, cfg config.SearchConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultSearchTimeout) * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultSearchBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		engineID:   cfg.EngineID,
		baseURL:    baseURL,
		logger:     log.With(slog.String("service", "search")),
	}
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.engineID != ""
}

// Search returns up to max results for query. Failures of any kind are logged
// and yield an empty result list; enrichment must never break the reply path.
func (c *Client) Search(ctx context.Context, query string, max int) []Result {
	if !c.Enabled() || strings.TrimSpace(query) == "" {
		return nil
	}
	if max <= 0 {
		max = 3
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		c.logger.Warn("invalid search base url", slog.Any("error", err))
		return nil
	}
	params := reqURL.Query()
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(max))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		c.logger.Warn("build search request failed", slog.Any("error", err))
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("search request failed", slog.Any("error", err))
		return nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close search response body failed", slog.Any("error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("read search response failed", slog.Any("error", err))
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("search request rejected", slog.Int("status", resp.StatusCode))
		return nil
	}

	var raw struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("decode search response failed", slog.Any("error", err))
		return nil
	}

	items := raw.Items
	if len(items) > max {
		items = items[:max]
	}
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	return results
}
