package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/categorize"
	"github.com/poiesic/sitedex/chunk"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/vectorstore"
)

// Vectorize chunks, embeds and indexes previously scraped pages. It is
// the second half of a run for data that was fetched earlier; failed
// pages in the input are skipped and reported, the URL cache stays
// untouched.
func Vectorize(ctx context.Context, cfg Config, embedder ai.Embedder, store *vectorstore.Manager, pages []*core.ScrapedPage) (*core.PipelineRun, error) {
	run := &core.PipelineRun{
		RunID:             uuid.NewString(),
		StartedAt:         time.Now().UTC(),
		State:             core.RunChunking,
		URLsRequested:     len(pages),
		PerCategoryCounts: make(map[string]int),
	}
	logger := slog.Default().With("component", "pipeline", "runID", run.RunID)

	chunker, err := chunk.New(chunk.WithSize(cfg.ChunkSize), chunk.WithOverlap(cfg.ChunkOverlap))
	if err != nil {
		run.State = core.RunFailed
		run.FinishedAt = time.Now().UTC()
		return run, err
	}
	categorizer := categorize.New()

	var items []IndexItem
	for _, page := range pages {
		if page.Status != core.FetchSuccess || page.CleanedText == "" {
			run.URLsFailed++
			run.FailedURLs = append(run.FailedURLs, core.URLFailure{URL: page.URL, Reason: page.ErrorReason})
			continue
		}
		run.URLsSucceeded++

		category, confidence := categorizer.Categorize(page.URL, page.CleanedText)
		chunks := chunker.ChunkPage(page.URL, category, confidence, page.CleanedText)
		run.ChunksCreated += len(chunks)
		for _, c := range chunks {
			items = append(items, IndexItem{Chunk: c, Metadata: documentMetadata(page, c)})
		}
	}

	run.State = core.RunEmbedding
	batcher := NewBatcher(embedder, store, cfg, logger)
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
		run.State = core.RunFailed
		run.FinishedAt = time.Now().UTC()
		return run, addErr
	}

	run.State = core.RunCompleted
	run.FinishedAt = time.Now().UTC()
	logger.Info("vectorize completed",
		"pages", run.URLsSucceeded,
		"chunksCreated", run.ChunksCreated,
		"chunksIndexed", run.ChunksIndexed)
	return run, nil
}
