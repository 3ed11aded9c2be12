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

// Package chunk splits cleaned page text into overlapping windows
// sized for embedding. Every chunk is an exact substring of the input
// and consecutive chunks share a fixed-length overlap, so stripping
// the overlap from each chunk after the first reconstructs the
// original text.
package chunk

import (
	"fmt"

	"github.com/poiesic/sitedex/core"
)

const (
	// DefaultSize is the chunk length in runes.
	DefaultSize = 1500

	// DefaultOverlap is how many trailing runes of one chunk reappear
	// at the start of the next.
	DefaultOverlap = 300
)

// Chunker windows text at a configured size and overlap. Cut points
// prefer paragraph breaks, then sentence ends, then word boundaries,
// falling back to a hard cut.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSize sets the chunk length in runes.
func WithSize(size int) Option {
	return func(c *Chunker) {
		c.size = size
	}
}

// WithOverlap sets the overlap length in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a Chunker. The overlap must be smaller than the size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{size: DefaultSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", c.size)
	}
	if c.overlap < 0 || c.overlap >= c.size {
		return nil, fmt.Errorf("overlap must be in [0, size), got %d with size %d", c.overlap, c.size)
	}
	return c, nil
}

// Split windows text into chunks. Text at most one chunk long comes
// back as a single chunk. Empty text yields no chunks.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		end = c.cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))
		start = end - c.overlap
	}
}

// cutPoint finds where to end the chunk starting at start, searching
// backwards from the hard limit. The cut never retreats past
// start+overlap+1 so the next chunk always makes progress.
func (c *Chunker) cutPoint(runes []rune, start, limit int) int {
	floor := start + c.size/2
	if min := start + c.overlap + 1; floor < min {
		floor = min
	}

	// Paragraph break: cut after the blank line.
	for i := limit; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	// Sentence end: cut after ". ", "! ", "? " or a newline.
	for i := limit; i > floor; i-- {
		if runes[i-1] == '\n' {
			return i
		}
		if i >= 2 && runes[i-1] == ' ' && isSentenceEnd(runes[i-2]) {
			return i
		}
	}
	// Word boundary.
	for i := limit; i > floor; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return limit
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// ChunkPage splits a page's text and wraps each window as a
// ContentChunk carrying the source URL, position, category and
// categorization confidence. Chunk IDs derive from the URL and index,
// so re-chunking the same page yields the same IDs.
func (c *Chunker) ChunkPage(sourceURL, category string, confidence float64, text string) []core.ContentChunk {
	parts := c.Split(text)
	chunks := make([]core.ContentChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, core.ContentChunk{
			ID:         core.DocumentID(sourceURL, i),
			SourceURL:  sourceURL,
			Index:      i,
			Total:      len(parts),
			Text:       part,
			Category:   category,
			Confidence: float32(confidence),
		})
	}
	return chunks
}

// Reassemble inverts Split: it concatenates chunks, dropping the
// overlap prefix of every chunk after the first.
func (c *Chunker) Reassemble(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	out := []rune(chunks[0])
	for _, part := range chunks[1:] {
		runes := []rune(part)
		if len(runes) > c.overlap {
			runes = runes[c.overlap:]
		} else {
			runes = nil
		}
		out = append(out, runes...)
	}
	return string(out)
}
