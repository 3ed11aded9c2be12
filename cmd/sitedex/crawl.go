package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/sitedex/crawl"
)

func crawlCommand(env envDefaults) *cli.Command {
	return &cli.Command{
		Name:   "crawl",
		Usage:  "Discover URLs within one site to seed the pipeline",
		Action: runCrawl,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Start URL, crawling stays on its domain",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "Stop after this many pages",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "parallelism",
				Usage: "Concurrent requests",
				Value: 4,
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Delay between requests to the same host",
				Value: time.Second,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write URLs to a file, one per line",
			},
		},
	}
}

func runCrawl(c *cli.Context) error {
	cfg := crawl.DefaultConfig()
	cfg.MaxPages = c.Int("max-pages")
	cfg.Parallelism = c.Int("parallelism")
	cfg.Delay = c.Duration("delay")

	crawler := crawl.New(cfg, slog.Default())
	urls, err := crawler.Discover(c.String("url"))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no pages discovered at %s", c.String("url"))
	}

	listing := strings.Join(urls, "\n") + "\n"
	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, []byte(listing), 0o644); err != nil {
			return fmt.Errorf("write URL list: %w", err)
		}
		fmt.Fprintf(os.Stderr, "discovered %d URLs, written to %s\n", len(urls), path)
		return nil
	}
	_, err = os.Stdout.WriteString(listing)
	return err
}
