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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/vectorstore"
)

// IndexItem is one chunk queued for embedding, paired with the
// document metadata it will carry into the store.
type IndexItem struct {
	Chunk    core.ContentChunk
	Metadata map[string]string
}

// Batcher accumulates chunks and flushes them as embedding batches,
// either when a batch fills or when a partial batch has waited out the
// flush interval. Failed batches are retried with backoff; chunks that
// still fail are recorded, never silently dropped.
type Batcher struct {
	embedder  ai.Embedder
	store     *vectorstore.Manager
	size      int
	interval  time.Duration
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger

	in        chan IndexItem
	done      chan struct{}
	closeOnce sync.Once
	sendMu    sync.RWMutex
	stopped   bool

	indexed     atomic.Int64
	mu          sync.Mutex
	failures    []core.ChunkFailure
	perCategory map[string]int
}

// NewBatcher creates a batcher. Call Start before Add.
func NewBatcher(embedder ai.Embedder, store *vectorstore.Manager, cfg Config, logger *slog.Logger) *Batcher {
	return &Batcher{
		embedder:    embedder,
		store:       store,
		size:        cfg.BatchSize,
		interval:    cfg.FlushInterval,
		attempts:    cfg.EmbedAttempts,
		baseDelay:   cfg.RetryBaseDelay,
		logger:      logger.With("component", "batcher"),
		in:          make(chan IndexItem, cfg.BatchSize*2),
		done:        make(chan struct{}),
		perCategory: make(map[string]int),
	}
}

// Start launches the flush loop. The loop exits when Close is called
// or the context ends.
func (b *Batcher) Start(ctx context.Context) {
	go b.run(ctx)
}

// Add queues one chunk. Blocks while the buffer is full, which is the
// backpressure that keeps chunking from outrunning embedding.
func (b *Batcher) Add(ctx context.Context, item IndexItem) error {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.stopped {
		return ErrBatcherClosed
	}
	select {
	case b.in <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and waits for queued chunks to flush. The write
// lock waits out in-flight Adds before the channel closes.
func (b *Batcher) Close() {
	b.closeOnce.Do(func() {
		b.sendMu.Lock()
		b.stopped = true
		b.sendMu.Unlock()
		close(b.in)
	})
	<-b.done
}

// Indexed returns how many chunks were stored.
func (b *Batcher) Indexed() int {
	return int(b.indexed.Load())
}

// Failures returns the chunks that could not be embedded or stored.
func (b *Batcher) Failures() []core.ChunkFailure {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.ChunkFailure, len(b.failures))
	copy(out, b.failures)
	return out
}

// PerCategory returns indexed chunk counts keyed by category.
func (b *Batcher) PerCategory() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.perCategory))
	for k, v := range b.perCategory {
		out[k] = v
	}
	return out
}

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	batch := make([]IndexItem, 0, b.size)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		b.flush(ctx, batch)
		batch = make([]IndexItem, 0, b.size)
	}

	for {
		select {
		case item, ok := <-b.in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, item)
			if len(batch) >= b.size {
				flush()
				ticker.Reset(b.interval)
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// Queued chunks will never flush now; report every one.
			for {
				select {
				case item, ok := <-b.in:
					if !ok {
						b.failBatch(batch, ctx.Err())
						return
					}
					batch = append(batch, item)
				default:
					b.failBatch(batch, ctx.Err())
					return
				}
			}
		}
	}
}

// flush embeds one batch and stores the documents grouped by category.
func (b *Batcher) flush(ctx context.Context, batch []IndexItem) {
	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.Chunk.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = b.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, b.attempts, b.baseDelay)
	if err != nil {
		b.logger.Error("embedding batch failed", "chunks", len(batch), "error", err)
		b.failBatch(batch, err)
		return
	}
	if len(vectors) != len(batch) {
		b.failBatch(batch, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch)))
		return
	}

	byCategory := make(map[string][]*core.VectorDocument)
	counts := make(map[string]int)
	for i, item := range batch {
		byCategory[item.Chunk.Category] = append(byCategory[item.Chunk.Category], &core.VectorDocument{
			ID:        item.Chunk.ID,
			Embedding: vectors[i],
			Text:      item.Chunk.Text,
			Metadata:  item.Metadata,
		})
		counts[item.Chunk.Category]++
	}

	for category, docs := range byCategory {
		err := RetryWithBackoff(ctx, func() error {
			return b.store.Upsert(ctx, category, docs...)
		}, b.attempts, b.baseDelay)
		if err != nil {
			b.logger.Error("storing batch failed", "category", category, "chunks", len(docs), "error", err)
			b.failDocs(category, docs, err)
			continue
		}
		b.indexed.Add(int64(len(docs)))
		b.mu.Lock()
		b.perCategory[category] += counts[category]
		b.mu.Unlock()
	}
}

func (b *Batcher) failBatch(batch []IndexItem, err error) {
	if len(batch) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range batch {
		b.failures = append(b.failures, core.ChunkFailure{
			SourceURL: item.Chunk.SourceURL,
			Index:     item.Chunk.Index,
			Reason:    err.Error(),
		})
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (b *Batcher) failDocs(category string, docs []*core.VectorDocument, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, doc := range docs {
		b.failures = append(b.failures, core.ChunkFailure{
			SourceURL: doc.Metadata[core.MetaSourceURL],
			Index:     atoiOrZero(doc.Metadata[core.MetaChunkIndex]),
			Reason:    fmt.Sprintf("store %s: %v", category, err),
		})
	}
}
