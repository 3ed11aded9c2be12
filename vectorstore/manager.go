// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/storage"
)

// Manager owns one vector collection per category. Collections live in
// physically separate databases named <collection>_<category>, so a
// search inside one category never touches another's data.
type Manager struct {
	cfg    Config
	open   OpenFunc
	logger *slog.Logger

	mu          sync.Mutex
	collections map[string]storage.VectorCollection
	closed      bool
}

// NewManager resolves the configured backend and returns a manager.
// Collections open lazily on first use.
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	open, err := Backend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:         cfg,
		open:        open,
		logger:      slog.Default().With("component", "vectorstore"),
		collections: make(map[string]storage.VectorCollection),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger.With("component", "vectorstore")
	}
}

// Collection returns the collection for a category, opening it if
// needed.
func (m *Manager) Collection(category string) (storage.VectorCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, storage.ErrStorageClosed
	}

	name := m.collectionName(category)
	if coll, ok := m.collections[name]; ok {
		return coll, nil
	}

	path := ""
	if !m.cfg.InMemory {
		path = filepath.Join(m.cfg.BaseDir, name)
	}
	coll, err := m.open(name, path, m.cfg.InMemory)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}
	m.logger.Info("opened collection", "name", name, "inMemory", m.cfg.InMemory)
	m.collections[name] = coll
	return coll, nil
}

// Upsert stores documents in the category's collection.
func (m *Manager) Upsert(ctx context.Context, category string, docs ...*core.VectorDocument) error {
	coll, err := m.Collection(category)
	if err != nil {
		return err
	}
	return coll.Upsert(ctx, docs...)
}

// Search queries one category. A category with no collection on disk
// yields no results rather than an error.
func (m *Manager) Search(ctx context.Context, category string, vector []float32, minScore float32, limit int) ([]*core.SearchResult, error) {
	coll, err := m.Collection(category)
	if err != nil {
		return nil, err
	}
	return coll.Search(ctx, vector, minScore, limit)
}

// SearchAll fans the query out over the given categories and merges
// the results by descending score, trimmed to limit.
func (m *Manager) SearchAll(ctx context.Context, categories []string, vector []float32, minScore float32, limit int) ([]*core.SearchResult, error) {
	var merged []*core.SearchResult
	for _, category := range categories {
		results, err := m.Search(ctx, category, vector, minScore, limit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", category, err)
		}
		merged = append(merged, results...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// ListChunks lists stored documents from one category.
func (m *Manager) ListChunks(ctx context.Context, category string, limit int) ([]*core.VectorDocument, error) {
	coll, err := m.Collection(category)
	if err != nil {
		return nil, err
	}
	return coll.ListChunks(ctx, limit)
}

// DeleteBySource removes every chunk of a source URL from the given
// categories and returns the total removed.
func (m *Manager) DeleteBySource(ctx context.Context, categories []string, sourceURL string) (int, error) {
	var total int
	for _, category := range categories {
		n, err := m.Collection(category)
		if err != nil {
			return total, err
		}
		deleted, err := n.DeleteBySource(ctx, sourceURL)
		if err != nil {
			return total, fmt.Errorf("delete from %s: %w", category, err)
		}
		total += deleted
	}
	return total, nil
}

// Counts returns the document count per open collection.
func (m *Manager) Counts(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	open := make(map[string]storage.VectorCollection, len(m.collections))
	for name, coll := range m.collections {
		open[name] = coll
	}
	m.mu.Unlock()

	counts := make(map[string]int, len(open))
	for name, coll := range open {
		n, err := coll.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

// Close closes every open collection. The first error wins but every
// collection still gets closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	for name, coll := range m.collections {
		if err := coll.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close collection %s: %w", name, err)
		}
	}
	m.collections = nil
	return firstErr
}

// collectionName joins the base collection name with the category,
// sanitized for use as a directory name.
func (m *Manager) collectionName(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, category)
	if sanitized == "" {
		sanitized = "default"
	}
	return m.cfg.Collection + "_" + sanitized
}
