// Package categorize assigns a topical category to scraped pages. Rules
// are ordered keyword lists matched against the URL and, with lower
// weight, the page text. Pages matching nothing fall back to
// "allgemein".
package categorize

import (
	"net/url"
	"strings"

	"github.com/poiesic/sitedex/core"
)

// FallbackCategory is assigned when no rule matches.
const FallbackCategory = "allgemein"

// Rule maps keywords to a category. A keyword hit in the URL scores
// URLWeight, one in the text scores TextWeight. The rule with the
// highest total wins; on a tie the earlier rule does.
type Rule struct {
	Category   string
	Keywords   []string
	URLWeight  float64
	TextWeight float64
}

// DefaultRules covers the sections of a German university faculty
// site, German and English path variants both.
func DefaultRules() []Rule {
	entries := []struct {
		category string
		keywords []string
	}{
		{"studium", []string{"studium", "bachelor", "master", "study", "studies", "programme"}},
		{"bewerbung", []string{"bewerbung", "application", "admission", "zulassung"}},
		{"fakultaet", []string{"fakultaet", "faculty", "dekanat", "departments", "department"}},
		{"forschung", []string{"forschung", "research", "publikationen", "publications"}},
		{"services", []string{"services", "it-services", "support", "beratung"}},
		{"international", []string{"international", "ausland", "exchange", "abroad"}},
		{"pruefungen", []string{"pruefung", "exam", "klausur", "thesis", "modulhandbuch"}},
		{"kontakt", []string{"kontakt", "contact", "ansprechpartner"}},
	}
	rules := make([]Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, Rule{
			Category:   e.category,
			Keywords:   e.keywords,
			URLWeight:  1.0,
			TextWeight: 0.25,
		})
	}
	return rules
}

// Categorizer scores pages against an ordered rule set.
type Categorizer struct {
	rules []Rule
	// maxScore normalizes raw scores into a confidence. Set from the
	// rule weights at construction time.
	maxScore float64
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithRules replaces the default rule set. Order matters: earlier
// rules win score ties.
func WithRules(rules []Rule) Option {
	return func(c *Categorizer) {
		c.rules = rules
	}
}

// New creates a categorizer with the default rules unless overridden.
func New(opts ...Option) *Categorizer {
	c := &Categorizer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(c)
	}
	for _, r := range c.rules {
		max := r.URLWeight*float64(len(r.Keywords)) + r.TextWeight*float64(len(r.Keywords))
		if max > c.maxScore {
			c.maxScore = max
		}
	}
	return c
}

// Categorize scores the page URL and text against every rule and
// returns the winning category with a confidence in [0, 1]. The
// fallback category carries confidence 0.
func (c *Categorizer) Categorize(url, text string) (string, float64) {
	// Keywords match the path only. Hosts like example.edu would
	// otherwise hit substring keywords ("exam") on every page.
	urlLower := strings.ToLower(urlPath(url))
	textLower := strings.ToLower(text)

	best := -1
	var bestScore float64
	for i, rule := range c.rules {
		var score float64
		for _, kw := range rule.Keywords {
			if strings.Contains(urlLower, kw) {
				score += rule.URLWeight
			}
			if strings.Contains(textLower, kw) {
				score += rule.TextWeight
			}
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best < 0 {
		return FallbackCategory, 0
	}

	confidence := bestScore / c.maxScore
	if confidence > 1 {
		confidence = 1
	}
	return c.rules[best].Category, confidence
}

// urlPath strips scheme and host so only the path is scored. Inputs
// that do not parse as absolute URLs are scored as given.
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Path
}

// CategorizePage is a convenience wrapper over a ScrapedPage.
func (c *Categorizer) CategorizePage(page *core.ScrapedPage) (string, float64) {
	return c.Categorize(page.URL, page.CleanedText)
}

// Categories lists the category names in rule order, fallback last.
func (c *Categorizer) Categories() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		names = append(names, r.Category)
	}
	return append(names, FallbackCategory)
}
