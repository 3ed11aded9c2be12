package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"
)

// boilerplateSelector matches page chrome that carries no content worth
// indexing. Removed before text conversion.
const boilerplateSelector = "script, style, nav, header, footer, aside, noscript, iframe, form"

// HTMLExtractor cleans HTML pages into plain text. It strips
// navigation, scripts and other boilerplate, pulls the title and meta
// description, and resolves outgoing links against the page URL.
type HTMLExtractor struct {
	removeSelector string
}

// NewHTMLExtractor creates an HTML extractor with the default
// boilerplate selector.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{removeSelector: boilerplateSelector}
}

func (e *HTMLExtractor) Extract(baseURL string, body []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	description = strings.TrimSpace(description)

	links := e.collectLinks(doc, baseURL)

	doc.Find(e.removeSelector).Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	fragment, err := goquery.OuterHtml(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	text, err := html2text.FromString(fragment, html2text.Options{
		OmitLinks: true,
		TextOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	text = normalizeText(text)
	if text == "" {
		return nil, ErrNoContent
	}

	return &Content{
		Title:       title,
		Description: description,
		CleanedText: text,
		WordCount:   countWords(text),
		Links:       links,
		Language:    guessLanguage(baseURL, text),
	}, nil
}

// collectLinks resolves every anchor href against the page URL and
// keeps http(s) targets only, deduplicated in document order.
func (e *HTMLExtractor) collectLinks(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return
		}
		ref.Fragment = ""
		resolved := ref.String()
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})
	return links
}
