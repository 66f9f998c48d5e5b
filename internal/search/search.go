// Package search implements the web-search client (C3): it GETs the
// you.com search API, extracts the top-K hits, and retries on
// transient failure, degrading gracefully (not erroring) on
// persistently empty results.
//
// Grounded on the teacher's HTTP-client construction style
// (pkg/llm/ollama/client.go's custom Transport) and its retry-budget
// pattern (pkg/config's MaxRetries/RetryDelayMs fields), generalized
// from an LLM retry budget to this search-specific one.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"gamal/internal/debugtrace"
	"gamal/internal/errs"
	"gamal/internal/rag"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TopK is the maximum number of references a search returns.
const TopK = 3

const maxAttempts = 3

// defaultBaseURL is the production you.com search endpoint.
const defaultBaseURL = "https://api.ydc-index.io/search"

// Client queries the you.com search API.
type Client struct {
	APIKey     string
	BaseURL    string // defaults to the production endpoint when empty
	HTTPClient *http.Client
	Debug      *debugtrace.Recorder
	// RetryDelay is the pause between attempts; defaults to 300ms.
	RetryDelay time.Duration
}

// New returns a Client ready to use.
func New(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		HTTPClient: http.DefaultClient,
		Debug:      debugtrace.New("", "", false),
		RetryDelay: 300 * time.Millisecond,
	}
}

type searchResponse struct {
	Hits []struct {
		Title       string   `json:"title"`
		URL         string   `json:"url"`
		Description string   `json:"description"`
		Snippets    []string `json:"snippets"`
	} `json:"hits"`
}

// cleanQuery strips a single trailing "." and matching leading/
// trailing '"' from keyphrases before it goes on the wire.
func cleanQuery(keyphrases string) string {
	q := strings.TrimSuffix(keyphrases, ".")
	if strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) && len(q) >= 2 {
		q = q[1 : len(q)-1]
	}
	return q
}

// Search queries for keyphrases and returns up to TopK references. On
// non-2xx HTTP after maxAttempts, it returns a SearchError. On
// persistently empty hits after maxAttempts, it returns an empty,
// non-error result — Respond is expected to degrade gracefully.
func (c *Client) Search(ctx context.Context, keyphrases string) ([]rag.Reference, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return c.searchAgainst(ctx, base, keyphrases)
}

// searchAgainst runs the retry/degrade policy against a specific
// endpoint base, factored out so tests can point it at an httptest
// server.
func (c *Client) searchAgainst(ctx context.Context, base, keyphrases string) ([]rag.Reference, error) {
	query := cleanQuery(keyphrases)

	var lastHTTPErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		refs, ok, err := c.attempt(ctx, base, query)
		if err != nil {
			lastHTTPErr = err
			if attempt < maxAttempts {
				c.sleep(ctx)
				continue
			}
			return nil, errs.Wrap(errs.KindSearch, "search request failed after retries", lastHTTPErr)
		}
		if ok {
			return refs, nil
		}
		if attempt < maxAttempts {
			c.sleep(ctx)
			continue
		}
	}
	// Exhausted attempts with empty hits each time: degrade, not error.
	return nil, nil
}

func (c *Client) sleep(ctx context.Context) {
	d := c.RetryDelay
	if d <= 0 {
		d = 300 * time.Millisecond
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// attempt performs one search HTTP round trip. ok reports whether any
// hits were returned; err is non-nil only on an HTTP/transport-level
// failure or an undecodable body (never on empty results, which is a
// valid response).
func (c *Client) attempt(ctx context.Context, base, query string) (refs []rag.Reference, ok bool, err error) {
	endpoint := fmt.Sprintf("%s?query=%s&num_web_results=%d", base, url.QueryEscape(query), TopK)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("X-API-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	c.Debug.Write(fmt.Sprintf("GET %s -> %d\n%s", endpoint, resp.StatusCode, string(body)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("search endpoint returned %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, err
	}

	if len(parsed.Hits) == 0 {
		return nil, false, nil
	}

	n := len(parsed.Hits)
	if n > TopK {
		n = TopK
	}
	refs = make([]rag.Reference, 0, n)
	for i := 0; i < n; i++ {
		h := parsed.Hits[i]
		snippet := h.Description + truncate(strings.Join(h.Snippets, "\n"), 1000)
		refs = append(refs, rag.Reference{
			Position: i + 1,
			Title:    h.Title,
			URL:      h.URL,
			Snippet:  snippet,
		})
	}
	return refs, true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
