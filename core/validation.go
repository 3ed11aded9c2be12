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


package core

import (
	"fmt"
	"time"
)

// ValidatePage validates a ScrapedPage according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//   - Status must be a known FetchStatus
//   - FetchedAt must not be in the future
//   - a failed page must carry an ErrorReason
func ValidatePage(p *ScrapedPage) error {
	if p.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrEmptyURL)
	}
	switch p.Status {
	case FetchSuccess, FetchFailed, FetchSkipped:
	default:
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrInvalidStatus)
	}
	if p.FetchedAt.After(time.Now().UTC().Add(time.Minute)) {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrInvalidTimestamp)
	}
	if p.Status == FetchFailed && p.ErrorReason == "" {
		return fmt.Errorf("%w: failed page requires an error reason", ErrInvalidPage)
	}
	return nil
}

// ValidateChunk validates a ContentChunk before it is embedded or stored.
func ValidateChunk(c *ContentChunk) error {
	if c.SourceURL == "" {
		return ErrEmptyURL
	}
	if c.Text == "" {
		return ErrEmptyChunk
	}
	if c.Category == "" {
		return ErrEmptyCategory
	}
	if c.Index < 0 || c.Total <= 0 || c.Index >= c.Total {
		return fmt.Errorf("%w: index %d of %d", ErrChunkIndexOutOfRange, c.Index, c.Total)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %f out of [0,1]", c.Confidence)
	}
	return nil
}

// ValidateDocument validates a VectorDocument before insertion.
// Documents must carry an embedding and the full metadata set.
func ValidateDocument(d *VectorDocument) error {
	if len(d.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if d.Text == "" {
		return ErrEmptyChunk
	}
	for _, key := range []string{MetaSourceURL, MetaCategory, MetaChunkIndex, MetaTotalChunks} {
		if _, ok := d.Metadata[key]; !ok {
			return fmt.Errorf("document %d missing metadata field %q", d.ID, key)
		}
	}
	return nil
}
