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
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/categorize"
	"github.com/poiesic/sitedex/chunk"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/dedup"
	"github.com/poiesic/sitedex/extract"
	"github.com/poiesic/sitedex/fetch"
	"github.com/poiesic/sitedex/storage"
	"github.com/poiesic/sitedex/vectorstore"
)

// Orchestrator drives one scrape batch from seed URLs to indexed
// vectors: cache check, fetch, extract, dedup, categorize, chunk,
// embed, index. Each run produces a write-once PipelineRun report.
type Orchestrator struct {
	cfg         Config
	cache       storage.URLCache
	fetcher     *fetch.Fetcher
	extractors  *extract.Registry
	categorizer *categorize.Categorizer
	chunker     *chunk.Chunker
	embedder    ai.Embedder
	store       *vectorstore.Manager
	logger      *slog.Logger
}

// New wires an orchestrator. All dependencies are required.
func New(cfg Config, cache storage.URLCache, fetcher *fetch.Fetcher, embedder ai.Embedder, store *vectorstore.Manager, opts ...OrchestratorOption) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cache == nil || fetcher == nil || store == nil {
		return nil, fmt.Errorf("cache, fetcher and store are required")
	}
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}

	chunker, err := chunk.New(chunk.WithSize(cfg.ChunkSize), chunk.WithOverlap(cfg.ChunkOverlap))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:         cfg,
		cache:       cache,
		fetcher:     fetcher,
		extractors:  extract.NewRegistry(),
		categorizer: categorize.New(),
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		logger:      slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger.With("component", "pipeline")
	}
}

// WithExtractors replaces the content extractor registry.
func WithExtractors(registry *extract.Registry) OrchestratorOption {
	return func(o *Orchestrator) {
		o.extractors = registry
	}
}

// WithCategorizer replaces the categorizer.
func WithCategorizer(c *categorize.Categorizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.categorizer = c
	}
}

// extractedPage carries a page between the per-URL stages.
type extractedPage struct {
	page       *core.ScrapedPage
	category   string
	confidence float64
}

// Run processes one batch of seed URLs. The returned report is always
// non-nil; a FAILED state plus error means the run aborted, while
// per-URL failures leave the run COMPLETED and show up in FailedURLs.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (*core.PipelineRun, error) {
	run := &core.PipelineRun{
		RunID:             uuid.NewString(),
		StartedAt:         time.Now().UTC(),
		State:             core.RunPending,
		URLsRequested:     len(urls),
		PerCategoryCounts: make(map[string]int),
	}
	logger := o.logger.With("runID", run.RunID)

	if len(urls) == 0 {
		return o.fail(run, ErrNoURLs)
	}

	// Stage: cache check. Guessing the category from the URL alone is
	// enough to pick the right freshness window.
	run.State = core.RunFetching
	toFetch := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		url := core.NormalizeURL(rawURL)
		if !o.cfg.ForceRefetch {
			category, _ := o.categorizer.Categorize(url, "")
			needed, err := o.cache.ShouldFetch(ctx, url, category)
			if err != nil {
				return o.fail(run, fmt.Errorf("cache check: %w", err))
			}
			if !needed {
				run.URLsSkippedUnchanged++
				continue
			}
		}
		toFetch = append(toFetch, url)
	}
	logger.Info("starting fetch", "requested", len(urls), "toFetch", len(toFetch), "skipped", run.URLsSkippedUnchanged)

	results, err := o.fetcher.FetchAll(ctx, toFetch)
	if err != nil {
		return o.fail(run, fmt.Errorf("fetch: %w", err))
	}

	run.State = core.RunExtracting
	pages, err := o.extractAll(ctx, run, results)
	if err != nil {
		return o.fail(run, err)
	}

	run.State = core.RunDeduping
	pages = o.dedupPages(ctx, run, pages)

	run.State = core.RunCategorizing
	for i := range pages {
		pages[i].category, pages[i].confidence = o.categorizer.CategorizePage(pages[i].page)
	}

	run.State = core.RunChunking
	items, err := o.chunkPages(ctx, run, pages)
	if err != nil {
		return o.fail(run, err)
	}

	if o.cfg.ArtifactDir != "" {
		if err := o.saveArtifact(run, pages); err != nil {
			logger.Warn("could not save scrape artifact", "error", err)
		}
	}

	run.State = core.RunEmbedding
	batcher := NewBatcher(o.embedder, o.store, o.cfg, o.logger)
	batcher.Start(ctx)
	var addErr error
	for _, item := range items {
		if addErr = batcher.Add(ctx, item); addErr != nil {
			break
		}
	}
	run.State = core.RunIndexing
	batcher.Close()

	run.ChunksIndexed = batcher.Indexed()
	run.FailedChunks = append(run.FailedChunks, batcher.Failures()...)
	for category, n := range batcher.PerCategory() {
		run.PerCategoryCounts[category] += n
	}
	if addErr != nil {
		return o.fail(run, fmt.Errorf("indexing: %w", addErr))
	}

	run.State = core.RunCompleted
	run.FinishedAt = time.Now().UTC()
	logger.Info("run completed",
		"succeeded", run.URLsSucceeded,
		"failed", run.URLsFailed,
		"skipped", run.URLsSkippedUnchanged,
		"chunksCreated", run.ChunksCreated,
		"chunksIndexed", run.ChunksIndexed,
		"duplicates", run.DuplicatesRemoved)
	return run, nil
}

// extractAll runs fetch-result handling and content extraction on a
// worker pool. Fetch and extraction failures are recorded in the URL
// cache and the run report; they never abort the batch.
func (o *Orchestrator) extractAll(ctx context.Context, run *core.PipelineRun, results []fetch.Result) ([]extractedPage, error) {
	pool, err := ants.NewPool(o.cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		pages []extractedPage
	)

	// The cache is not written here. A failed URL leaves no entry, so
	// the next run simply tries it again.
	recordFailure := func(url, reason string) {
		o.logger.Debug("page failed", "url", url, "reason", reason)
		mu.Lock()
		run.URLsFailed++
		run.FailedURLs = append(run.FailedURLs, core.URLFailure{URL: url, Reason: reason})
		mu.Unlock()
	}

	for i := range results {
		res := &results[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if res.Err != nil {
				recordFailure(res.URL, res.Err.Error())
				return
			}

			content, err := o.extractors.Extract(res.ContentType, res.URL, res.Body)
			if err != nil {
				recordFailure(res.URL, fmt.Sprintf("extract: %v", err))
				return
			}

			page := &core.ScrapedPage{
				URL:         res.URL,
				FetchedAt:   res.FetchedAt,
				Status:      core.FetchSuccess,
				RawHash:     core.ContentHash(content.CleanedText),
				Title:       content.Title,
				Description: content.Description,
				CleanedText: content.CleanedText,
				WordCount:   content.WordCount,
				Links:       content.Links,
				Language:    content.Language,
			}
			mu.Lock()
			pages = append(pages, extractedPage{page: page})
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			recordFailure(res.URL, fmt.Sprintf("submit: %v", submitErr))
		}
	}
	wg.Wait()

	return pages, nil
}

// dedupPages drops exact and near duplicates within the batch. The
// first page admitted stays canonical; duplicates still get a cache
// entry so they are not refetched next run.
func (o *Orchestrator) dedupPages(ctx context.Context, run *core.PipelineRun, pages []extractedPage) []extractedPage {
	deduper := dedup.New(dedup.WithThreshold(o.cfg.DedupThreshold), dedup.WithLogger(o.logger))

	kept := pages[:0]
	for _, p := range pages {
		ok, canonical := deduper.Admit(p.page.URL, p.page.CleanedText)
		if !ok {
			run.DuplicatesRemoved++
			o.logger.Debug("duplicate page", "url", p.page.URL, "canonical", canonical)
			category, _ := o.categorizer.CategorizePage(p.page)
			if err := o.cache.RecordSuccess(ctx, p.page.URL, p.page.RawHash, category, time.Now().UTC()); err != nil {
				o.logger.Warn("could not record duplicate", "url", p.page.URL, "error", err)
			}
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// chunkPages categorizes and windows every kept page, skipping pages
// whose content hash matches the cache entry from a previous run. The
// cache success record is written here, after extraction proved the
// page usable.
func (o *Orchestrator) chunkPages(ctx context.Context, run *core.PipelineRun, pages []extractedPage) ([]IndexItem, error) {
	var items []IndexItem
	for _, p := range pages {
		category, confidence := p.category, p.confidence

		unchanged := false
		if !o.cfg.ForceRefetch {
			entry, err := o.cache.Entry(ctx, p.page.URL)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("cache lookup: %w", err)
			}
			unchanged = entry != nil && entry.Success && entry.ContentHash == p.page.RawHash
		}

		if err := o.cache.RecordSuccess(ctx, p.page.URL, p.page.RawHash, category, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("cache record: %w", err)
		}

		// An unchanged page counts as skipped, not succeeded, so the
		// run counters never sum above the URLs requested.
		if unchanged {
			run.URLsSkippedUnchanged++
			o.logger.Debug("content unchanged, skipping chunks", "url", p.page.URL)
			continue
		}
		run.URLsSucceeded++

		chunks := o.chunker.ChunkPage(p.page.URL, category, confidence, p.page.CleanedText)
		run.ChunksCreated += len(chunks)
		for _, c := range chunks {
			items = append(items, IndexItem{
				Chunk:    c,
				Metadata: documentMetadata(p.page, c),
			})
		}
	}
	return items, nil
}

// documentMetadata builds the retrieval metadata stored with every
// chunk.
func documentMetadata(page *core.ScrapedPage, c core.ContentChunk) map[string]string {
	return map[string]string{
		core.MetaSourceURL:   page.URL,
		core.MetaTitle:       page.Title,
		core.MetaDescription: page.Description,
		core.MetaDomain:      core.Domain(page.URL),
		core.MetaTimestamp:   page.FetchedAt.Format(time.RFC3339),
		core.MetaWordCount:   strconv.Itoa(page.WordCount),
		core.MetaChunkIndex:  strconv.Itoa(c.Index),
		core.MetaTotalChunks: strconv.Itoa(c.Total),
		core.MetaCategory:    c.Category,
		core.MetaLanguage:    page.Language,
	}
}

func (o *Orchestrator) fail(run *core.PipelineRun, err error) (*core.PipelineRun, error) {
	run.State = core.RunFailed
	run.FinishedAt = time.Now().UTC()
	o.logger.Error("run failed", "runID", run.RunID, "state", run.State, "error", err)
	return run, err
}
