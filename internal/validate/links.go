package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const linkMaxRetries = 3

// linkSleepFunc is the sleep function used between retries (injectable for tests)
var linkSleepFunc = time.Sleep

// LinkStatus is the outcome of checking one URL
type LinkStatus struct {
	URL         string
	Accessible  bool
	Dead        bool // 404/410 or unreachable
	StatusCode  int
	RedirectURL string
	Error       string
}

// LinkChecker checks source URLs concurrently with HEAD requests
type LinkChecker struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
}

// NewLinkChecker creates a new checker. The client should cap redirects.
func NewLinkChecker(client *http.Client, userAgent string, maxWorkers int) *LinkChecker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LinkChecker{
		httpClient: client,
		userAgent:  userAgent,
		maxWorkers: maxWorkers,
	}
}

// Check checks all URLs concurrently. Results are returned in input order.
func (c *LinkChecker) Check(ctx context.Context, urls []string) []LinkStatus {
	results := make([]LinkStatus, len(urls))
	if len(urls) == 0 {
		return results
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = LinkStatus{URL: rawURL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

// checkOne issues a HEAD request, falling back to GET for servers that reject HEAD
func (c *LinkChecker) checkOne(ctx context.Context, rawURL string) LinkStatus {
	status := LinkStatus{URL: rawURL}

	resp, err := c.do(ctx, http.MethodHead, rawURL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		_ = resp.Body.Close()
		resp, err = c.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		status.Dead = true
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		status.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		status.Dead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		status.RedirectURL = final
	}
	return status
}

func (c *LinkChecker) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// checkWithRetry retries transient failures with exponential backoff
func (c *LinkChecker) checkWithRetry(ctx context.Context, rawURL string) LinkStatus {
	var status LinkStatus
	for attempt := 0; attempt < linkMaxRetries; attempt++ {
		status = c.checkOne(ctx, rawURL)
		if !isRetryable(status) || ctx.Err() != nil {
			return status
		}
		if attempt < linkMaxRetries-1 {
			linkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return status
}

func isRetryable(s LinkStatus) bool {
	if s.StatusCode == http.StatusTooManyRequests || (s.StatusCode >= 500 && s.StatusCode < 600) {
		return true
	}
	e := strings.ToLower(s.Error)
	return strings.Contains(e, "timeout") ||
		strings.Contains(e, "connection refused") ||
		strings.Contains(e, "connection reset")
}
