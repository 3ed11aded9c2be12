// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search answers semantic queries against the per-category
// vector collections. The query is embedded with the same model that
// indexed the chunks, then matched by cosine similarity with a score
// floor. Queries without a category fan out over every known category
// and merge the ranked results.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/categorize"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/vectorstore"
)

const (
	// DefaultMinScore filters out weak matches.
	DefaultMinScore = 0.1

	// DefaultLimit caps the result count.
	DefaultLimit = 5
)

// Request is one semantic query. Zero values fall back to the
// defaults; an empty Category searches every category.
type Request struct {
	Query    string
	Category string
	Limit    int
	MinScore float32
}

// Service embeds queries and searches the vector store.
type Service struct {
	embedder   ai.Embedder
	store      *vectorstore.Manager
	categories []string
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCategories overrides the category list used for fan-out.
func WithCategories(categories []string) Option {
	return func(s *Service) {
		s.categories = categories
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger.With("component", "search")
	}
}

// NewService creates a search service over the given store.
func NewService(embedder ai.Embedder, store *vectorstore.Manager, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}
	s := &Service{
		embedder:   embedder,
		store:      store,
		categories: categorize.New().Categories(),
		logger:     slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs one query. An empty or unknown category collection
// yields an empty result set, not an error.
func (s *Service) Search(ctx context.Context, req Request) ([]*core.SearchResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.MinScore == 0 {
		req.MinScore = DefaultMinScore
	}

	vector, err := s.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var results []*core.SearchResult
	if req.Category != "" {
		results, err = s.store.Search(ctx, req.Category, vector, req.MinScore, req.Limit)
	} else {
		results, err = s.store.SearchAll(ctx, s.categories, vector, req.MinScore, req.Limit)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search done", "query", req.Query, "category", req.Category, "results", len(results))
	return results, nil
}
