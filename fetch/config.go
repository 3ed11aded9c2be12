package fetch

import (
	"errors"
	"time"
)

// Config holds fetcher tunables. Construct once and pass to NewFetcher;
// nothing reads ambient global state.
type Config struct {
	// Concurrency is the maximum number of in-flight requests.
	Concurrency int

	// PerHostDelay is the minimum delay between requests to the same host.
	// Rate limiting is per host, not global.
	PerHostDelay time.Duration

	// Timeout bounds each request attempt.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first failure
	// of a transient kind (timeouts, 5xx, 429, connection errors).
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between retries.
	RetryDelay time.Duration

	// UserAgent identifies the crawler to servers.
	UserAgent string

	// MaxBodySize caps how many bytes of a response body are read.
	MaxBodySize int64
}

// Option configures a Config.
type Option func(*Config)

// WithConcurrency sets the maximum number of in-flight requests.
func WithConcurrency(n int) Option {
	return func(c *Config) { c.Concurrency = n }
}

// WithPerHostDelay sets the politeness delay between same-host requests.
func WithPerHostDelay(d time.Duration) Option {
	return func(c *Config) { c.PerHostDelay = d }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.RetryDelay = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

// WithMaxBodySize caps how many response body bytes are read.
func WithMaxBodySize(n int64) Option {
	return func(c *Config) { c.MaxBodySize = n }
}

// DefaultConfig returns the fetcher defaults.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:  10,
		PerHostDelay: time.Second,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		UserAgent:    "sitedex/1.0",
		MaxBodySize:  5 * 1024 * 1024,
	}
}

// NewConfig creates a Config with defaults and applies the given options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.New("fetch config: Concurrency must be at least 1")
	}
	if c.Timeout <= 0 {
		return errors.New("fetch config: Timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("fetch config: MaxRetries cannot be negative")
	}
	if c.MaxBodySize <= 0 {
		return errors.New("fetch config: MaxBodySize must be positive")
	}
	return nil
}
