package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize_URLKeywords(t *testing.T) {
	c := New()

	tests := []struct {
		url  string
		want string
	}{
		{"https://wiso.example.edu/studium/bachelor", "studium"},
		{"https://wiso.example.edu/bewerbung/zulassung", "bewerbung"},
		{"https://wiso.example.edu/fakultaet/dekanat", "fakultaet"},
		{"https://wiso.example.edu/forschung/publikationen", "forschung"},
		{"https://wiso.example.edu/it-services/support", "services"},
		{"https://wiso.example.edu/international/exchange", "international"},
		{"https://wiso.example.edu/pruefungen/klausur", "pruefungen"},
		{"https://wiso.example.edu/kontakt", "kontakt"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			category, confidence := c.Categorize(tt.url, "")
			assert.Equal(t, tt.want, category)
			assert.Greater(t, confidence, 0.0)
		})
	}
}

func TestCategorize_HostNeverMatchesKeywords(t *testing.T) {
	c := New()

	// "exam" is a substring of both hosts; only the path may score.
	category, confidence := c.Categorize("https://example.com/impressum", "")
	assert.Equal(t, FallbackCategory, category)
	assert.Zero(t, confidence)

	category, _ = c.Categorize("https://wiso.example.edu/kontakt", "")
	assert.Equal(t, "kontakt", category)
}

func TestCategorize_FallbackCategory(t *testing.T) {
	c := New()

	category, confidence := c.Categorize("https://wiso.example.edu/impressum", "Rechtliche Angaben gemäß Telemediengesetz.")
	assert.Equal(t, FallbackCategory, category)
	assert.Zero(t, confidence, "the fallback carries no confidence")
}

func TestCategorize_TextKeywordsCount(t *testing.T) {
	c := New()

	category, _ := c.Categorize(
		"https://wiso.example.edu/seiten/42",
		"Die Bewerbung um einen Studienplatz erfolgt über das Zulassungsportal. Für die Application gelten Fristen.",
	)
	assert.Equal(t, "bewerbung", category, "text keywords alone must be able to categorize")
}

func TestCategorize_URLOutweighsText(t *testing.T) {
	c := New()

	// One URL keyword (weight 1.0) beats one text keyword (weight 0.25).
	category, _ := c.Categorize(
		"https://wiso.example.edu/forschung",
		"Hinweise zum Kontakt mit den Lehrstühlen.",
	)
	assert.Equal(t, "forschung", category)
}

func TestCategorize_FirstDeclaredWinsTies(t *testing.T) {
	rules := []Rule{
		{Category: "erste", Keywords: []string{"thema"}, URLWeight: 1, TextWeight: 0.25},
		{Category: "zweite", Keywords: []string{"thema"}, URLWeight: 1, TextWeight: 0.25},
	}
	c := New(WithRules(rules))

	category, _ := c.Categorize("https://wiso.example.edu/thema", "")
	assert.Equal(t, "erste", category, "equal scores must resolve to the earlier rule")
}

func TestCategorize_ConfidenceBounds(t *testing.T) {
	c := New()

	// Hit every keyword of one rule in URL and text.
	url := "https://wiso.example.edu/studium-bachelor-master-study-studies-programme"
	text := "studium bachelor master study studies programme"
	category, confidence := c.Categorize(url, text)

	require.Equal(t, "studium", category)
	assert.LessOrEqual(t, confidence, 1.0)
	assert.Greater(t, confidence, 0.9, "a full keyword sweep should approach confidence 1")
}

func TestCategories_OrderAndFallback(t *testing.T) {
	c := New()
	categories := c.Categories()

	require.NotEmpty(t, categories)
	assert.Equal(t, "studium", categories[0])
	assert.Equal(t, FallbackCategory, categories[len(categories)-1])
}
