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

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/extract"
	"github.com/poiesic/sitedex/fetch"
	"github.com/poiesic/sitedex/pipeline"
)

func scrapeCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:   "scrape",
		Usage:  "Fetch and extract pages without indexing them",
		Action: runScrape,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "urls",
				Aliases: []string{"u"},
				Usage:   "URL to scrape (repeatable)",
			},
			&cli.StringFlag{
				Name:  "urls-file",
				Usage: "File with one URL per line",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file, stdout when omitted",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (json, jsonl)",
				Value: "json",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Concurrent fetch workers",
				Value: 10,
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
		},
	}
}

func runScrape(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	urls, err := collectURLs(c)
	if err != nil {
		return err
	}

	fetcher, err := fetch.NewFetcher(fetch.NewConfig(
		fetch.WithConcurrency(c.Int("concurrency")),
		fetch.WithPerHostDelay(c.Duration("delay")),
		fetch.WithTimeout(c.Duration("timeout")),
	))
	if err != nil {
		return err
	}

	normalized := make([]string, 0, len(urls))
	for _, u := range urls {
		normalized = append(normalized, core.NormalizeURL(u))
	}
	results, err := fetcher.FetchAll(ctx, normalized)
	if err != nil {
		return err
	}

	registry := extract.NewRegistry()
	pages := make([]*core.ScrapedPage, 0, len(results))
	for i := range results {
		pages = append(pages, scrapedPage(registry, &results[i]))
	}

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch c.String("format") {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pages)
	case "jsonl":
		enc := json.NewEncoder(out)
		for _, page := range pages {
			if err := enc.Encode(page); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q: use json or jsonl", c.String("format"))
	}
}

// scrapedPage converts one fetch result into a ScrapedPage record.
// Failures keep their reason so the output is a complete account of
// the batch.
func scrapedPage(registry *extract.Registry, res *fetch.Result) *core.ScrapedPage {
	page := &core.ScrapedPage{
		URL:       res.URL,
		FetchedAt: res.FetchedAt,
	}
	if res.Err != nil {
		page.Status = core.FetchFailed
		page.ErrorReason = res.Err.Error()
		return page
	}

	content, err := registry.Extract(res.ContentType, res.URL, res.Body)
	if err != nil {
		page.Status = core.FetchFailed
		page.ErrorReason = fmt.Sprintf("extract: %v", err)
		return page
	}

	page.Status = core.FetchSuccess
	page.RawHash = core.ContentHash(content.CleanedText)
	page.Title = content.Title
	page.Description = content.Description
	page.CleanedText = content.CleanedText
	page.WordCount = content.WordCount
	page.Links = content.Links
	page.Language = content.Language
	return page
}

func vectorizeCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:   "vectorize",
		Usage:  "Chunk, embed and index previously scraped pages",
		Action: runVectorize,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "JSON file of scraped pages (scrape output or pipeline artifact)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Base collection name",
				Value:   "sitedex",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Chunk length in characters",
				Value: pipeline.DefaultConfig().ChunkSize,
			},
			&cli.IntFlag{
				Name:  "chunk-overlap",
				Usage: "Overlap between consecutive chunks",
				Value: pipeline.DefaultConfig().ChunkOverlap,
			},
		}, embeddingFlags(env)...),
	}
}

func runVectorize(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := loadScrapedPages(c.String("input"))
	if err != nil {
		return err
	}

	store, err := openManager(c, c.String("collection"))
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := newEmbedder(c)
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig()
	cfg.BatchSize = c.Int("embed-batch-size")
	cfg.ChunkSize = c.Int("chunk-size")
	cfg.ChunkOverlap = c.Int("chunk-overlap")

	run, runErr := pipeline.Vectorize(ctx, cfg, embedder, store, pages)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return runErr
}

// loadScrapedPages accepts either a bare page array (scrape output) or
// a pipeline artifact object with a pages field.
func loadScrapedPages(path string) ([]*core.ScrapedPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var pages []*core.ScrapedPage
	if err := json.Unmarshal(data, &pages); err == nil {
		return pages, nil
	}

	var artifact struct {
		Pages []*core.ScrapedPage `json:"pages"`
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return artifact.Pages, nil
}
