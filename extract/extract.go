package extract

import (
	"strings"
)

// Content is the cleaned, structured result of extracting one document.
type Content struct {
	Title       string
	Description string
	CleanedText string
	WordCount   int
	Links       []string
	Language    string
}

// Extractor converts one document format into the common Content shape.
type Extractor interface {
	Extract(baseURL string, body []byte) (*Content, error)
}

// Registry routes documents to a format-specific extractor by content
// type. Resolution happens by prefix match on the MIME type, so
// "text/html; charset=utf-8" finds the "text/html" extractor.
type Registry struct {
	extractors map[string]Extractor
	fallback   Extractor
}

// NewRegistry creates a registry with the built-in extractors: HTML
// (also the fallback), plain text, and PDF.
func NewRegistry() *Registry {
	html := NewHTMLExtractor()
	r := &Registry{
		extractors: make(map[string]Extractor),
		fallback:   html,
	}
	r.Register("text/html", html)
	r.Register("application/xhtml+xml", html)
	r.Register("text/plain", PlainTextExtractor{})
	r.Register("application/pdf", PDFExtractor{})
	return r
}

// Register adds an extractor for a MIME type.
func (r *Registry) Register(mimeType string, e Extractor) {
	r.extractors[mimeType] = e
}

// For returns the extractor for a Content-Type header value.
func (r *Registry) For(contentType string) Extractor {
	mime := contentType
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if e, ok := r.extractors[mime]; ok {
		return e
	}
	return r.fallback
}

// Extract routes body to the extractor for contentType.
func (r *Registry) Extract(contentType, baseURL string, body []byte) (*Content, error) {
	return r.For(contentType).Extract(baseURL, body)
}

// normalizeText collapses runs of spaces inside lines and runs of blank
// lines between paragraphs, keeping the paragraph structure the chunker
// aligns to.
func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			flush()
			continue
		}
		current = append(current, strings.Join(fields, " "))
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

// countWords counts whitespace-separated tokens.
func countWords(text string) int {
	return len(strings.Fields(text))
}
