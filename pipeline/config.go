package pipeline

import (
	"fmt"
	"time"

	"github.com/poiesic/sitedex/chunk"
	"github.com/poiesic/sitedex/dedup"
)

// Config controls one orchestrator instance.
type Config struct {
	// Concurrency bounds the worker pool for per-page processing.
	Concurrency int
	// BatchSize is the number of chunks embedded per request.
	BatchSize int
	// FlushInterval flushes a partial embedding batch that has been
	// sitting this long.
	FlushInterval time.Duration
	// ChunkSize and ChunkOverlap configure text windowing, in runes.
	ChunkSize    int
	ChunkOverlap int
	// DedupThreshold is the Jaccard similarity above which pages count
	// as near duplicates.
	DedupThreshold float64
	// EmbedAttempts is how many times a failed embed or index batch is
	// tried before its chunks are reported failed.
	EmbedAttempts int
	// RetryBaseDelay seeds the exponential backoff between attempts.
	RetryBaseDelay time.Duration
	// ArtifactDir, when set, receives a JSON snapshot of the scraped
	// pages of every run.
	ArtifactDir string
	// ForceRefetch bypasses the URL cache freshness check.
	ForceRefetch bool
}

// DefaultConfig mirrors the scraper defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:    10,
		BatchSize:      32,
		FlushInterval:  2 * time.Second,
		ChunkSize:      chunk.DefaultSize,
		ChunkOverlap:   chunk.DefaultOverlap,
		DedupThreshold: dedup.DefaultThreshold,
		EmbedAttempts:  2,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %s", c.FlushInterval)
	}
	if c.EmbedAttempts <= 0 {
		return fmt.Errorf("embed attempts must be positive, got %d", c.EmbedAttempts)
	}
	if c.DedupThreshold <= 0 || c.DedupThreshold > 1 {
		return fmt.Errorf("dedup threshold must be in (0, 1], got %f", c.DedupThreshold)
	}
	return nil
}
