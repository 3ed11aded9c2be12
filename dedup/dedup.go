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

// Package dedup removes duplicate pages from a scrape batch. Exact
// duplicates are caught by content hash, near duplicates by Jaccard
// similarity over word shingles. The first page seen stays canonical.
package dedup

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/sitedex/core"
)

const (
	// DefaultThreshold is the Jaccard similarity above which two pages
	// count as near duplicates.
	DefaultThreshold = 0.85

	// shingleSize is the word count per shingle. Three words keeps
	// boilerplate phrases from dominating while staying sensitive to
	// reordered paragraphs.
	shingleSize = 3
)

type entry struct {
	url      string
	shingles map[string]struct{}
}

// Deduplicator tracks the pages admitted within one batch. Safe for
// concurrent use.
type Deduplicator struct {
	mu        sync.Mutex
	threshold float64
	byHash    map[string]string
	entries   []entry
	logger    *slog.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithThreshold overrides the near-duplicate similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(d *Deduplicator) {
		d.threshold = threshold
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) {
		d.logger = logger.With("component", "dedup")
	}
}

// New creates a batch-scoped deduplicator.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		threshold: DefaultThreshold,
		byHash:    make(map[string]string),
		logger:    slog.Default().With("component", "dedup"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Admit reports whether the page is new to the batch. A false return
// carries the URL of the canonical page it duplicates. Admitted pages
// become part of the comparison set for later calls.
func (d *Deduplicator) Admit(url, text string) (bool, string) {
	hash := core.ContentHash(text)

	d.mu.Lock()
	defer d.mu.Unlock()

	if canonical, ok := d.byHash[hash]; ok {
		d.logger.Debug("exact duplicate", "url", url, "canonical", canonical)
		return false, canonical
	}

	shingles := Shingles(text, shingleSize)
	for _, prev := range d.entries {
		if Jaccard(shingles, prev.shingles) >= d.threshold {
			d.logger.Debug("near duplicate", "url", url, "canonical", prev.url)
			return false, prev.url
		}
	}

	d.byHash[hash] = url
	d.entries = append(d.entries, entry{url: url, shingles: shingles})
	return true, ""
}

// Len returns the number of canonical pages admitted so far.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Shingles builds the set of overlapping n-word shingles of text,
// lowercased. Texts shorter than n words yield a single shingle of the
// whole text.
func Shingles(text string, n int) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{})
	if len(words) < n {
		if len(words) > 0 {
			set[strings.Join(words, " ")] = struct{}{}
		}
		return set
	}
	for i := 0; i+n <= len(words); i++ {
		set[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return set
}

// Jaccard computes |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var inter int
	for s := range small {
		if _, ok := large[s]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
