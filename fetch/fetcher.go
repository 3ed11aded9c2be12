package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sitedex/core"
	"golang.org/x/time/rate"
)

// Result is the outcome of fetching one URL. Either Body is set, or Err
// carries the classified failure after Attempts tries.
type Result struct {
	URL         string
	Body        []byte
	Header      http.Header
	ContentType string
	StatusCode  int
	Attempts    int
	FetchedAt   time.Time
	Err         error
}

// Fetcher retrieves pages with bounded concurrency, per-host politeness
// delays, timeouts, and retry with exponential backoff. It performs no
// writes: the URL cache is the orchestrator's responsibility.
type Fetcher struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a fetcher from the given config.
func NewFetcher(cfg *Config) (*Fetcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Fetcher{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   slog.Default().With("component", "fetcher"),
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// limiter returns the politeness limiter for a host, creating it on
// first use.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		if f.cfg.PerHostDelay > 0 {
			lim = rate.NewLimiter(rate.Every(f.cfg.PerHostDelay), 1)
		} else {
			lim = rate.NewLimiter(rate.Inf, 1)
		}
		f.limiters[host] = lim
	}
	return lim
}

// Fetch retrieves a single URL, honoring the host's politeness delay and
// retrying transient failures up to the configured budget.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	res := Result{URL: url}
	host := core.Domain(url)

	var lastErr error
	maxAttempts := f.cfg.MaxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		if err := f.limiter(host).Wait(ctx); err != nil {
			res.Err = err
			return res
		}

		res.Attempts = attempt
		body, header, status, err := f.attempt(ctx, url)
		if err == nil {
			res.Body = body
			res.Header = header
			res.StatusCode = status
			res.ContentType = header.Get("Content-Type")
			res.FetchedAt = time.Now().UTC()
			if attempt > 1 {
				f.logger.Debug("fetch succeeded after retry", "url", url, "attempt", attempt)
			}
			return res
		}

		res.StatusCode = status
		lastErr = err
		if !retryable(err) {
			res.Err = err
			return res
		}

		f.logger.Debug("fetch failed, will retry",
			"url", url, "attempt", attempt, "maxAttempts", maxAttempts, "err", err)

		if attempt == maxAttempts {
			break
		}

		// Exponential backoff: RetryDelay * 2^(attempt-1)
		delay := f.cfg.RetryDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.Err = ctx.Err()
			return res
		case <-timer.C:
		}
	}

	res.Err = fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, res.Attempts, lastErr)
	return res
}

// attempt performs one HTTP GET.
func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, http.Header, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, 0, &Error{URL: url, Err: err, Permanent: true}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Network errors and timeouts are transient.
		return nil, nil, 0, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ferr := &Error{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
		// 4xx except 429 will not succeed on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			ferr.Permanent = true
		}
		return nil, resp.Header, resp.StatusCode, ferr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return nil, resp.Header, resp.StatusCode, &Error{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, resp.Header, resp.StatusCode, nil
}

// FetchAll fetches a batch of URLs on a bounded worker pool and returns
// one Result per URL, in input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]Result, error) {
	pool, err := ants.NewPool(f.cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = f.Fetch(ctx, url)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = Result{URL: url, Err: submitErr}
		}
	}
	wg.Wait()
	return results, nil
}

// retryable reports whether an error may succeed on retry.
func retryable(err error) bool {
	var ferr *Error
	if errors.As(err, &ferr) {
		return !ferr.Permanent
	}
	return true
}
