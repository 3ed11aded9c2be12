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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
)

// envDefaults are flag fallbacks sourced from the environment, with a
// .env file honored when present.
type envDefaults struct {
	EmbeddingHost  string `envconfig:"EMBEDDING_HOST" default:"http://localhost:11434/v1"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"embeddinggemma"`
	APIToken       string `envconfig:"API_TOKEN" default:"none"`
	DataDir        string `envconfig:"DATA_DIR" default:"./data"`
}

func loadEnvDefaults() (envDefaults, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	var env envDefaults
	if err := envconfig.Process("sitedex", &env); err != nil {
		return env, fmt.Errorf("environment config: %w", err)
	}
	return env, nil
}

func main() {
	env, err := loadEnvDefaults()
	if err != nil {
		log.Fatal(err)
	}

	app := &cli.App{
		Name:   "sitedex",
		Usage:  "Crawl web pages into searchable per-category vector collections",
		Flags:  globalFlags(env),
		Before: setupLogger,
		Commands: []*cli.Command{
			pipelineCommand(env),
			searchCommand(env),
			chunksCommand(env),
			scrapeCommand(env),
			vectorizeCommand(env),
			analyzeCommand(env),
			crawlCommand(env),
			cacheCommand(env),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func globalFlags(env envDefaults) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the URL cache and vector collections",
			Value: env.DataDir,
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
