package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound requests per host. The input fetcher uses one
// to stay polite when a batch references many pages on the same site.
type Limiter struct {
	mu      sync.Mutex
	hosts   map[string]*rate.Limiter
	perHost rate.Limit
	burst   int
}

// NewLimiter allows requestsPerSecond per host with the given burst. A
// non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	perHost := rate.Inf
	if requestsPerSecond > 0 {
		perHost = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		hosts:   make(map[string]*rate.Limiter),
		perHost: perHost,
		burst:   burst,
	}
}

// Wait blocks until a request to rawURL's host may proceed
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(host).Wait(ctx)
}

// SetCrawlDelay slows host down to one request per delay, as asked by
// robots.txt. It never speeds a host up.
func (l *Limiter) SetCrawlDelay(host string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	host = strings.ToLower(host)
	limit := rate.Every(delay)

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.perHost
	if existing, ok := l.hosts[host]; ok {
		current = existing.Limit()
	}
	if current <= limit {
		return
	}
	l.hosts[host] = rate.NewLimiter(limit, 1)
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.perHost, l.burst)
		l.hosts[host] = lim
	}
	return lim
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return strings.ToLower(u.Hostname()), nil
}
