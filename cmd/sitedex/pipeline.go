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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/sitedex/chunk"
	"github.com/poiesic/sitedex/dedup"
	"github.com/poiesic/sitedex/fetch"
	"github.com/poiesic/sitedex/pipeline"
)

func pipelineCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:   "pipeline",
		Usage:  "Run the full crawl-to-vector pipeline over seed URLs",
		Action: runPipeline,
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:    "urls",
				Aliases: []string{"u"},
				Usage:   "Seed URL (repeatable)",
			},
			&cli.StringFlag{
				Name:  "urls-file",
				Usage: "File with one seed URL per line",
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Base collection name",
				Value:   "sitedex",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Concurrent fetch and extract workers",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Chunk length in characters",
				Value: chunk.DefaultSize,
			},
			&cli.IntFlag{
				Name:  "chunk-overlap",
				Usage: "Overlap between consecutive chunks",
				Value: chunk.DefaultOverlap,
			},
			&cli.Float64Flag{
				Name:  "dedup-threshold",
				Usage: "Jaccard similarity above which pages count as duplicates",
				Value: dedup.DefaultThreshold,
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Minimum delay between requests to the same host",
				Value: time.Second,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: 30 * time.Second,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Retry attempts for transient fetch failures",
				Value: 3,
			},
			&cli.StringFlag{
				Name:  "artifact-dir",
				Usage: "Directory for JSON snapshots of scraped pages",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Refetch URLs regardless of cache freshness",
			},
		}, embeddingFlags(env)...),
	}
}

func runPipeline(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	urls, err := collectURLs(c)
	if err != nil {
		return err
	}

	cache, err := openURLCache(c)
	if err != nil {
		return err
	}
	defer cache.Close()

	store, err := openManager(c, c.String("collection"))
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return err
	}

	fetcher, err := fetch.NewFetcher(fetch.NewConfig(
		fetch.WithConcurrency(c.Int("concurrency")),
		fetch.WithPerHostDelay(c.Duration("delay")),
		fetch.WithTimeout(c.Duration("timeout")),
		fetch.WithMaxRetries(c.Int("max-retries")),
	))
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig()
	cfg.Concurrency = c.Int("concurrency")
	cfg.BatchSize = c.Int("embed-batch-size")
	cfg.ChunkSize = c.Int("chunk-size")
	cfg.ChunkOverlap = c.Int("chunk-overlap")
	cfg.DedupThreshold = c.Float64("dedup-threshold")
	cfg.ArtifactDir = c.String("artifact-dir")
	cfg.ForceRefetch = c.Bool("force")

	orchestrator, err := pipeline.New(cfg, cache, fetcher, embedder, store)
	if err != nil {
		return err
	}

	run, runErr := orchestrator.Run(ctx, urls)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("pipeline run %s failed: %w", run.RunID, runErr)
	}
	return nil
}
