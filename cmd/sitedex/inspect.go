package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/sitedex/analysis"
	"github.com/poiesic/sitedex/categorize"
	"github.com/poiesic/sitedex/core"
)

func chunksCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:   "chunks",
		Usage:  "List stored chunks with their metadata",
		Action: runChunks,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Base collection name",
				Value:   "sitedex",
			},
			&cli.StringFlag{
				Name:     "category",
				Usage:    "Category collection to list",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum chunks to list, 0 for all",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "full-text",
				Usage: "Print the full chunk text instead of a preview",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Output format (json, txt)",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the listing to a file instead of stdout",
			},
		},
	}
}

// chunkListing is the JSON shape printed per chunk.
type chunkListing struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Stored   string            `json:"stored"`
}

func runChunks(c *cli.Context) error {
	store, err := openManager(c, c.String("collection"))
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.ListChunks(context.Background(), c.String("category"), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(os.Stderr, "no chunks stored")
		return nil
	}

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create chunk export: %w", err)
		}
		defer f.Close()
		out = f
	}

	fullText := c.Bool("full-text") || c.String("output") != ""
	switch c.String("export") {
	case "json":
		enc := json.NewEncoder(out)
		for _, doc := range docs {
			text := doc.Text
			if !fullText && len(text) > 200 {
				text = text[:200] + "…"
			}
			listing := chunkListing{
				ID:       fmt.Sprintf("%d", doc.ID),
				Text:     text,
				Metadata: doc.Metadata,
				Stored:   doc.Stored.Format("2006-01-02T15:04:05Z07:00"),
			}
			if err := enc.Encode(listing); err != nil {
				return err
			}
		}
	case "txt":
		for i, doc := range docs {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "--- %s [%s/%s] %s\n",
				doc.Metadata[core.MetaSourceURL],
				doc.Metadata[core.MetaChunkIndex],
				doc.Metadata[core.MetaTotalChunks],
				doc.Metadata[core.MetaCategory])
			fmt.Fprintln(out, doc.Text)
		}
	default:
		return fmt.Errorf("unknown export format: %s", c.String("export"))
	}
	return nil
}

func analyzeCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "Report quality metrics over indexed collections",
		Action: runAnalyze,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Base collection name",
				Value:   "sitedex",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Output format (json, markdown, html)",
				Value: "markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
		},
	}
}

func runAnalyze(c *cli.Context) error {
	store, err := openManager(c, c.String("collection"))
	if err != nil {
		return err
	}
	defer store.Close()

	categories := categorize.New().Categories()
	report, err := analysis.New(store).Analyze(context.Background(), categories)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return report.Export(out, analysis.Format(c.String("export")))
}

func cacheCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the URL cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry counts by category and outcome",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Action: runCacheClear,
			},
		},
	}
}

func runCacheStats(c *cli.Context) error {
	cache, err := openURLCache(c)
	if err != nil {
		return err
	}
	defer cache.Close()

	entries, err := cache.Entries(context.Background())
	if err != nil {
		return err
	}

	var succeeded, failed int
	byCategory := make(map[string]int)
	for _, e := range entries {
		if e.Success {
			succeeded++
		} else {
			failed++
		}
		byCategory[e.Category]++
	}

	stats := struct {
		Total      int            `json:"total"`
		Succeeded  int            `json:"succeeded"`
		Failed     int            `json:"failed"`
		ByCategory map[string]int `json:"by_category"`
	}{len(entries), succeeded, failed, byCategory}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func runCacheClear(c *cli.Context) error {
	cache, err := openURLCache(c)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "URL cache cleared")
	return nil
}
