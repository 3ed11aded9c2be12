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

// Package crawl discovers URLs within one site to seed the pipeline.
// The crawler stays on the start domain, respects a page bound, and
// returns the discovered URLs in visit order. It never extracts or
// indexes anything; discovery is its whole job.
package crawl

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/poiesic/sitedex/core"
)

// Config bounds one discovery crawl.
type Config struct {
	// MaxPages stops discovery after this many pages. Zero means no
	// bound, which on a university site is rarely what you want.
	MaxPages int
	// Parallelism bounds concurrent requests.
	Parallelism int
	// Delay spaces requests to the same host.
	Delay time.Duration
	// UserAgent identifies the crawler.
	UserAgent string
}

// DefaultConfig matches the fetcher's politeness defaults.
func DefaultConfig() Config {
	return Config{
		MaxPages:    100,
		Parallelism: 4,
		Delay:       time.Second,
		UserAgent:   "sitedex/1.0",
	}
}

// Crawler walks one site breadth-first through anchor links.
type Crawler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a crawler.
func New(cfg Config, logger *slog.Logger) *Crawler {
	return &Crawler{cfg: cfg, logger: logger.With("component", "crawl")}
}

// Discover crawls from startURL and returns the normalized URLs of
// every page visited, startURL first.
func (c *Crawler) Discover(startURL string) ([]string, error) {
	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q", startURL)
	}
	domain := start.Hostname()

	collector := colly.NewCollector(
		colly.AllowedDomains(domain),
		colly.UserAgent(c.cfg.UserAgent),
		colly.Async(true),
	)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Parallelism,
		Delay:       c.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("limit rule: %w", err)
	}

	var (
		mu      sync.Mutex
		visited = make(map[string]bool)
		found   []string
	)

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		normalized := core.NormalizeURL(e.Request.URL.String())

		mu.Lock()
		defer mu.Unlock()
		if visited[normalized] {
			return
		}
		if c.cfg.MaxPages > 0 && len(found) >= c.cfg.MaxPages {
			return
		}
		visited[normalized] = true
		found = append(found, normalized)
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		mu.Lock()
		full := c.cfg.MaxPages > 0 && len(found) >= c.cfg.MaxPages
		mu.Unlock()
		if full {
			return
		}

		link := e.Request.AbsoluteURL(e.Attr("href"))
		if !c.follow(link, domain) {
			return
		}
		_ = e.Request.Visit(link)
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Debug("crawl error", "url", r.Request.URL.String(), "error", err)
	})

	if err := collector.Visit(startURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", startURL, err)
	}
	collector.Wait()

	c.logger.Info("discovery finished", "start", startURL, "found", len(found))
	return found, nil
}

// skipExtensions are asset types that never carry indexable prose.
var skipExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico",
	".css", ".js", ".zip", ".tar", ".gz",
	".mp3", ".mp4", ".avi", ".mov",
}

func (c *Crawler) follow(link, domain string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Hostname() != domain {
		return false
	}
	lowered := strings.ToLower(parsed.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lowered, ext) {
			return false
		}
	}
	return true
}
