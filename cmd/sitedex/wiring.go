package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/sitedex/ai"
	"github.com/poiesic/sitedex/ai/mock"
	"github.com/poiesic/sitedex/ai/openai"
	"github.com/poiesic/sitedex/storage"
	"github.com/poiesic/sitedex/storage/badger"
	"github.com/poiesic/sitedex/vectorstore"
)

// embeddingFlags are shared by every command that talks to the
// embedding service.
func embeddingFlags(env envDefaults) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: env.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: env.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "api-token",
			Usage: "Embedding service API token",
			Value: env.APIToken,
		},
		&cli.IntFlag{
			Name:  "embed-batch-size",
			Usage: "Number of texts per embedding request",
			Value: 32,
		},
		&cli.BoolFlag{
			Name:  "mock-embedder",
			Usage: "Use deterministic offline embeddings instead of the embedding service",
		},
	}
}

func newEmbedder(c *cli.Context) (ai.Embedder, error) {
	if c.Bool("mock-embedder") {
		return mock.NewEmbedder(), nil
	}
	cfg := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithToken(c.String("api-token")),
		ai.WithBatchSize(c.Int("embed-batch-size")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}
	return openai.NewEmbedder(cfg)
}

func openURLCache(c *cli.Context) (storage.URLCache, error) {
	backend, err := badger.OpenBackend(filepath.Join(c.String("data-dir"), "urlcache"), false)
	if err != nil {
		return nil, fmt.Errorf("open URL cache: %w", err)
	}
	return badger.NewURLCache(backend), nil
}

func openManager(c *cli.Context, collection string) (*vectorstore.Manager, error) {
	cfg := vectorstore.DefaultConfig(filepath.Join(c.String("data-dir"), "vectors"))
	if collection != "" {
		cfg.Collection = collection
	}
	return vectorstore.NewManager(cfg)
}

// collectURLs merges --urls flags with the lines of --urls-file.
func collectURLs(c *cli.Context) ([]string, error) {
	urls := append([]string(nil), c.StringSlice("urls")...)

	if path := c.String("urls-file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open URL list: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read URL list: %w", err)
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs given: use --urls or --urls-file")
	}
	return urls, nil
}
