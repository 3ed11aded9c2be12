package extract

import "strings"

var (
	germanStopwords  = []string{"der", "die", "das", "und", "nicht", "für", "mit", "sie", "ist", "auf", "werden", "eine", "auch", "sich", "oder"}
	englishStopwords = []string{"the", "and", "for", "with", "that", "this", "are", "you", "not", "have", "from", "will", "was", "can", "which"}
)

// guessLanguage picks between German and English. A language segment in
// the URL path wins outright; otherwise stopword frequency in the text
// decides, defaulting to German on a tie since the corpus is
// German-first.
func guessLanguage(pageURL, text string) string {
	lowered := strings.ToLower(pageURL)
	switch {
	case strings.Contains(lowered, "/en/") || strings.HasSuffix(lowered, "/en"):
		return "en"
	case strings.Contains(lowered, "/de/") || strings.HasSuffix(lowered, "/de"):
		return "de"
	}

	counts := make(map[string]int)
	words := strings.Fields(strings.ToLower(text))
	limit := len(words)
	if limit > 500 {
		limit = 500
	}
	for _, w := range words[:limit] {
		counts[strings.Trim(w, ".,;:!?()\"'")]++
	}

	var de, en int
	for _, w := range germanStopwords {
		de += counts[w]
	}
	for _, w := range englishStopwords {
		en += counts[w]
	}
	if en > de {
		return "en"
	}
	return "de"
}
