package storage

import (
	"context"
	"time"

	"github.com/poiesic/sitedex/core"
)

// URLCache is the persistent record of previously scraped URLs.
// Implementations must be thread-safe; read-modify-write for one URL is
// serialized so concurrent workers never double-count a URL as new.
type URLCache interface {
	// ShouldFetch reports whether a URL needs (re)fetching: true when the
	// URL was never seen, its last scrape failed, or its cache entry is
	// older than the max age for its category.
	ShouldFetch(ctx context.Context, url string, category string) (bool, error)

	// RecordSuccess overwrites the entry for url with the new content
	// hash and timestamp.
	RecordSuccess(ctx context.Context, url, contentHash, category string, at time.Time) error

	// RecordFailure records a failed scrape without touching the stored
	// content hash.
	RecordFailure(ctx context.Context, url, reason string, at time.Time) error

	// Entry returns the cache entry for url, or storage.ErrNotFound.
	Entry(ctx context.Context, url string) (*core.URLCacheEntry, error)

	// Entries lists all cache entries, for inspection tooling.
	Entries(ctx context.Context) ([]*core.URLCacheEntry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}

// VectorCollection is one isolated vector index. A document upserted into
// one collection never appears in another's results; the collection also
// determines the physical storage location.
type VectorCollection interface {
	// Upsert inserts or replaces documents by ID. Replacement is
	// delete-and-reinsert so vector, text, and metadata stay consistent.
	Upsert(ctx context.Context, docs ...*core.VectorDocument) error

	// Search returns documents ranked by cosine similarity to the query
	// vector, filtered to scores >= minScore, up to limit results.
	Search(ctx context.Context, vector []float32, minScore float32, limit int) ([]*core.SearchResult, error)

	// ListChunks returns stored documents with metadata for inspection
	// and export. A limit <= 0 means no limit.
	ListChunks(ctx context.Context, limit int) ([]*core.VectorDocument, error)

	// DeleteBySource removes all documents whose source_url metadata
	// matches sourceURL. Returns the number removed.
	DeleteBySource(ctx context.Context, sourceURL string) (int, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying store.
	Close() error
}
