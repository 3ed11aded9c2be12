package badger

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// Collection implements storage.VectorCollection on BadgerDB. Each
// collection owns its own database directory, so categories are isolated
// physically, not just by a metadata filter.
type Collection struct {
	backend *Backend
	name    string

	// Serializes upserts. Badger transactions would detect the conflict
	// when two workers write the same document ID, but serializing avoids
	// lost updates without retry loops on the hot write path.
	writeMu sync.Mutex
}

var _ storage.VectorCollection = (*Collection)(nil)

// NewCollection creates a collection on the given backend.
func NewCollection(backend *Backend, name string) *Collection {
	return &Collection{backend: backend, name: name}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Close closes the collection's database.
func (c *Collection) Close() error {
	return c.backend.Close()
}

// Upsert inserts or replaces documents by ID. A replaced document is
// deleted first, together with its source index entry, so a partially
// written update is never visible.
func (c *Collection) Upsert(ctx context.Context, docs ...*core.VectorDocument) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return err
		}
		// Stored vectors are unit length, so Search's dot product is
		// cosine similarity.
		doc.Embedding = core.NormalizeVector(doc.Embedding)
		if doc.Stored.IsZero() {
			doc.Stored = time.Now().UTC()
		}
		err := c.backend.Update(func(tx *badger.Txn) error {
			key := makeDocumentKey(doc.ID)
			if item, err := tx.Get(key); err == nil {
				prev, perr := readDocument(item)
				if perr != nil {
					return perr
				}
				if err := tx.Delete(makeSourceKey(prev.Metadata[core.MetaSourceURL], prev.ID)); err != nil {
					return err
				}
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
			return tx.Set(makeSourceKey(doc.Metadata[core.MetaSourceURL], doc.ID), storage.MarshalID(doc.ID))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Search scans the collection, scoring every stored document against the
// query vector by dot product. Vectors are normalized at index and query
// time, so the dot product is the cosine similarity.
func (c *Collection) Search(ctx context.Context, vector []float32, minScore float32, limit int) ([]*core.SearchResult, error) {
	query := core.NormalizeVector(vector)

	var results []*core.SearchResult
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			doc, err := readDocument(iter.Item())
			if err != nil {
				return err
			}
			if len(doc.Embedding) == 0 {
				continue
			}
			score := core.DotProduct(query, doc.Embedding)
			if score >= minScore {
				results = append(results, &core.SearchResult{Document: doc, Score: score})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListChunks returns stored documents. A limit <= 0 means no limit.
func (c *Collection) ListChunks(ctx context.Context, limit int) ([]*core.VectorDocument, error) {
	var docs []*core.VectorDocument
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(docs) >= limit {
				return nil
			}
			doc, err := readDocument(iter.Item())
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteBySource removes all documents originating from sourceURL.
func (c *Collection) DeleteBySource(ctx context.Context, sourceURL string) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	removed := 0
	err := c.backend.Update(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialSourceKey(sourceURL)
		iter := tx.NewIterator(opts)

		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			ids = append(ids, id)
		}
		iter.Close()

		for _, id := range ids {
			if err := tx.Delete(makeDocumentKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeSourceKey(sourceURL, id)); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Count returns the number of stored documents.
func (c *Collection) Count(ctx context.Context) (int, error) {
	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func readDocument(item *badger.Item) (*core.VectorDocument, error) {
	var doc *core.VectorDocument
	err := item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
