package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/claimtrace/internal/model"
)

// Searcher returns a bounded list of results for a query
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// ErrEmptyQuery is returned for blank queries
var ErrEmptyQuery = errors.New("empty search query")

// searchSleepFunc waits between retries (injectable for tests)
var searchSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DuckDuckGo queries the DuckDuckGo Instant Answer API
type DuckDuckGo struct {
	httpClient   *http.Client
	endpoint     string
	userAgent    string
	maxResults   int
	maxRetries   int
	retryBackoff time.Duration
}

// NewDuckDuckGo creates a client from search settings and a shared HTTP client
func NewDuckDuckGo(cfg model.SearchConfig, client *http.Client, userAgent string) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = model.DefaultConfig().Search.Endpoint
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &DuckDuckGo{
		httpClient:   client,
		endpoint:     endpoint,
		userAgent:    userAgent,
		maxResults:   maxResults,
		maxRetries:   maxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading        string     `json:"Heading"`
	AbstractText   string     `json:"AbstractText"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Answer         string     `json:"Answer"`
	Results        []ddgTopic `json:"Results"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

// httpStatusError carries a non-2xx status so retry policy can inspect it
type httpStatusError struct {
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("search API returned status %d", e.StatusCode)
}

// Search runs the query, retrying rate limits, 5xx responses and
// transient network errors with exponential backoff. An empty answer
// yields a single NoResult record rather than an error.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var lastErr error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.retryBackoff * time.Duration(1<<uint(attempt-1))
			if err := searchSleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("search %q: %w", query, err)
			}
		}

		resp, err := d.fetch(ctx, query)
		if err == nil {
			return d.toResults(query, resp), nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("search %q: %w", query, lastErr)
}

func (d *DuckDuckGo) fetch(ctx context.Context, query string) (*ddgResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")
	params.Set("no_redirect", "1")

	reqURL := d.endpoint
	if strings.Contains(reqURL, "?") {
		reqURL += "&" + params.Encode()
	} else {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &httpStatusError{StatusCode: resp.StatusCode}
	}

	var out ddgResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func (d *DuckDuckGo) toResults(query string, resp *ddgResponse) []model.SearchResult {
	var results []model.SearchResult
	add := func(r model.SearchResult) bool {
		if len(results) >= d.maxResults {
			return false
		}
		results = append(results, r)
		return true
	}

	if resp.AbstractText != "" && resp.AbstractURL != "" {
		title := resp.Heading
		if resp.AbstractSource != "" {
			title = strings.TrimSpace(title + " (" + resp.AbstractSource + ")")
		}
		add(model.SearchResult{
			Title:   title,
			Link:    resp.AbstractURL,
			Snippet: resp.AbstractText,
			Type:    model.SourceTypeAbstract,
		})
	}

	for _, r := range resp.Results {
		if r.FirstURL == "" {
			continue
		}
		if !add(model.SearchResult{Title: topicTitle(r), Link: r.FirstURL, Snippet: r.Text, Type: model.SourceTypeResult}) {
			break
		}
	}

	for _, topic := range flattenTopics(resp.RelatedTopics) {
		if !add(model.SearchResult{Title: topicTitle(topic), Link: topic.FirstURL, Snippet: topic.Text, Type: model.SourceTypeRelatedTopic}) {
			break
		}
	}

	if len(results) == 0 {
		return []model.SearchResult{{
			Title:   "No results",
			Snippet: fmt.Sprintf("No instant-answer results for %q", query),
			Type:    model.SourceTypeNoResult,
		}}
	}
	return results
}

// flattenTopics expands grouped topics depth-first, keeping only entries with a URL
func flattenTopics(topics []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		if t.FirstURL != "" {
			out = append(out, t)
		}
	}
	return out
}

// topicTitle uses the text before the first " - " as a title
func topicTitle(t ddgTopic) string {
	if i := strings.Index(t.Text, " - "); i > 0 {
		return t.Text[:i]
	}
	if r := []rune(t.Text); len(r) > 80 {
		return string(r[:80]) + "…"
	}
	return t.Text
}

func isRetryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}
