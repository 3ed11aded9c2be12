package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/search"
)

func searchCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Semantic search over indexed collections",
		ArgsUsage: "<query>",
		Action:    runSearch,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Base collection name",
				Value:   "sitedex",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Restrict the search to one category",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   search.DefaultLimit,
			},
			&cli.Float64Flag{
				Name:  "min-score",
				Usage: "Minimum cosine similarity",
				Value: search.DefaultMinScore,
			},
		}, embeddingFlags(env)...),
	}
}

func runSearch(c *cli.Context) error {
	query := c.Args().First()
	if query == "" {
		return fmt.Errorf("usage: sitedex search <query>")
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

	svc, err := search.NewService(embedder, store)
	if err != nil {
		return err
	}

	results, err := svc.Search(context.Background(), search.Request{
		Query:    query,
		Category: c.String("category"),
		Limit:    c.Int("limit"),
		MinScore: float32(c.Float64("min-score")),
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "no results")
		return nil
	}
	for i, res := range results {
		printResult(i+1, res)
	}
	return nil
}

func printResult(rank int, res *core.SearchResult) {
	doc := res.Document
	fmt.Printf("%d. [%.3f] %s\n", rank, res.Score, doc.Metadata[core.MetaTitle])
	fmt.Printf("   %s (%s, chunk %s/%s)\n",
		doc.Metadata[core.MetaSourceURL],
		doc.Metadata[core.MetaCategory],
		doc.Metadata[core.MetaChunkIndex],
		doc.Metadata[core.MetaTotalChunks])

	text := doc.Text
	if len(text) > 300 {
		text = text[:300] + "…"
	}
	fmt.Printf("   %s\n\n", text)
}
