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

// Package analysis computes quality metrics over indexed collections:
// how completely the metadata fields are populated, how long the
// chunks run, and how diverse the sources are. The report helps judge
// whether a scrape produced retrieval-worthy data before anything
// queries it.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/vectorstore"
)

// requiredFields are the metadata keys every document should carry.
var requiredFields = []string{
	core.MetaSourceURL,
	core.MetaTitle,
	core.MetaDescription,
	core.MetaDomain,
	core.MetaTimestamp,
	core.MetaWordCount,
	core.MetaChunkIndex,
	core.MetaTotalChunks,
	core.MetaCategory,
	core.MetaLanguage,
}

// Report summarizes the quality of one or more collections.
type Report struct {
	TotalDocuments int                `json:"total_documents"`
	AvgTextLength  float64            `json:"avg_text_length"`
	UniqueSources  int                `json:"unique_sources"`
	SourceCounts   map[string]int     `json:"source_counts"`
	CategoryCounts map[string]int     `json:"category_counts"`
	FieldPresence  map[string]float64 `json:"field_presence"`
}

// Analyzer reads collections through the vector store manager.
type Analyzer struct {
	store *vectorstore.Manager
}

// New creates an analyzer over the given store.
func New(store *vectorstore.Manager) *Analyzer {
	return &Analyzer{store: store}
}

// Analyze builds a report over the given categories. Empty collections
// contribute nothing; a fully empty store yields a zero report.
func (a *Analyzer) Analyze(ctx context.Context, categories []string) (*Report, error) {
	report := &Report{
		SourceCounts:   make(map[string]int),
		CategoryCounts: make(map[string]int),
		FieldPresence:  make(map[string]float64),
	}

	fieldHits := make(map[string]int)
	var totalLength int

	for _, category := range categories {
		docs, err := a.store.ListChunks(ctx, category, 0)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", category, err)
		}
		for _, doc := range docs {
			report.TotalDocuments++
			totalLength += len(doc.Text)
			report.CategoryCounts[category]++
			if src := doc.Metadata[core.MetaSourceURL]; src != "" {
				report.SourceCounts[src]++
			}
			for _, field := range requiredFields {
				if doc.Metadata[field] != "" {
					fieldHits[field]++
				}
			}
		}
	}

	if report.TotalDocuments > 0 {
		report.AvgTextLength = float64(totalLength) / float64(report.TotalDocuments)
		for _, field := range requiredFields {
			report.FieldPresence[field] = float64(fieldHits[field]) / float64(report.TotalDocuments)
		}
	}
	report.UniqueSources = len(report.SourceCounts)
	return report, nil
}

// TopSources returns up to n source URLs ordered by chunk count.
func (r *Report) TopSources(n int) []string {
	sources := make([]string, 0, len(r.SourceCounts))
	for src := range r.SourceCounts {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		if r.SourceCounts[sources[i]] != r.SourceCounts[sources[j]] {
			return r.SourceCounts[sources[i]] > r.SourceCounts[sources[j]]
		}
		return sources[i] < sources[j]
	})
	if n > 0 && len(sources) > n {
		sources = sources[:n]
	}
	return sources
}
