package badger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// Default max ages before a cached URL is considered stale. Content that
// changes often (news, events) expires daily; regulations and handbooks
// only change between semesters.
var defaultMaxAges = map[string]time.Duration{
	"news":          24 * time.Hour,
	"events":        24 * time.Hour,
	"pruefungen":    90 * 24 * time.Hour,
	"modulhandbuch": 90 * 24 * time.Hour,
	"fakultaet":     30 * 24 * time.Hour,
	"forschung":     30 * 24 * time.Hour,
	"kontakt":       90 * 24 * time.Hour,
}

const defaultMaxAge = 7 * 24 * time.Hour

// URLCache implements storage.URLCache on BadgerDB.
type URLCache struct {
	backend    *Backend
	maxAges    map[string]time.Duration
	defaultAge time.Duration
}

var _ storage.URLCache = (*URLCache)(nil)

// URLCacheOption configures a URLCache.
type URLCacheOption func(*URLCache)

// WithMaxAge overrides the max age for one category.
func WithMaxAge(category string, age time.Duration) URLCacheOption {
	return func(c *URLCache) {
		c.maxAges[category] = age
	}
}

// WithDefaultMaxAge overrides the fallback max age.
func WithDefaultMaxAge(age time.Duration) URLCacheOption {
	return func(c *URLCache) {
		c.defaultAge = age
	}
}

// NewURLCache creates a URL cache on the given backend.
func NewURLCache(backend *Backend, opts ...URLCacheOption) *URLCache {
	c := &URLCache{
		backend:    backend,
		maxAges:    make(map[string]time.Duration, len(defaultMaxAges)),
		defaultAge: defaultMaxAge,
	}
	for category, age := range defaultMaxAges {
		c.maxAges[category] = age
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close is a no-op; the backend owns the database handle.
func (c *URLCache) Close() error {
	return nil
}

// maxAge determines how long a cache entry stays fresh, from URL path
// patterns first, then the entry's category.
func (c *URLCache) maxAge(url, category string) time.Duration {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "/news/") || strings.Contains(lower, "/aktuelles/"):
		return c.maxAges["news"]
	case strings.Contains(lower, "/event") || strings.Contains(lower, "/veranstaltung"):
		return c.maxAges["events"]
	case strings.Contains(lower, "pruefungsordnung") || strings.Contains(lower, "modulhandbuch"):
		return c.maxAges["modulhandbuch"]
	}
	if age, ok := c.maxAges[strings.ToLower(category)]; ok {
		return age
	}
	return c.defaultAge
}

// ShouldFetch reports whether a URL needs (re)fetching.
func (c *URLCache) ShouldFetch(ctx context.Context, url string, category string) (bool, error) {
	entry, err := c.Entry(ctx, url)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !entry.Success {
		return true, nil
	}
	age := time.Since(entry.LastScrapedAt)
	return age >= c.maxAge(url, category), nil
}

// RecordSuccess overwrites the entry for url. The read-modify-write runs
// inside one conflict-retried transaction so concurrent workers on the
// same URL serialize.
func (c *URLCache) RecordSuccess(ctx context.Context, url, contentHash, category string, at time.Time) error {
	key := makeURLKey(core.NormalizeURL(url))
	return c.backend.Update(func(tx *badger.Txn) error {
		entry := &core.URLCacheEntry{
			URL:           core.NormalizeURL(url),
			ContentHash:   contentHash,
			LastScrapedAt: at.UTC(),
			Success:       true,
			Category:      category,
		}
		return tx.Set(key, storage.MarshalCacheEntry(entry))
	})
}

// RecordFailure records a failed scrape. The previously stored content
// hash survives so the next run still retries and compares correctly.
func (c *URLCache) RecordFailure(ctx context.Context, url, reason string, at time.Time) error {
	key := makeURLKey(core.NormalizeURL(url))
	return c.backend.Update(func(tx *badger.Txn) error {
		entry := &core.URLCacheEntry{
			URL:           core.NormalizeURL(url),
			LastScrapedAt: at.UTC(),
			Success:       false,
			FailureReason: reason,
		}
		if item, err := tx.Get(key); err == nil {
			if prev, perr := readEntry(item); perr == nil {
				entry.ContentHash = prev.ContentHash
				entry.Category = prev.Category
			}
		}
		return tx.Set(key, storage.MarshalCacheEntry(entry))
	})
}

// Entry returns the cache entry for url.
func (c *URLCache) Entry(ctx context.Context, url string) (*core.URLCacheEntry, error) {
	var entry *core.URLCacheEntry
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeURLKey(core.NormalizeURL(url)))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		entry, err = readEntry(item)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries lists all cache entries.
func (c *URLCache) Entries(ctx context.Context) ([]*core.URLCacheEntry, error) {
	var entries []*core.URLCacheEntry
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(urlEntryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			entry, err := readEntry(iter.Item())
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear removes every cache entry.
func (c *URLCache) Clear(ctx context.Context) error {
	return c.backend.Update(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(urlEntryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func readEntry(item *badger.Item) (*core.URLCacheEntry, error) {
	var entry *core.URLCacheEntry
	err := item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalCacheEntry(val)
		return err
	})
	return entry, err
}
