package extract

// PlainTextExtractor passes plain text through the shared whitespace
// normalization. The first non-empty line doubles as the title.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(baseURL string, body []byte) (*Content, error) {
	text := normalizeText(string(body))
	if text == "" {
		return nil, ErrNoContent
	}

	title := text
	if idx := indexParagraphEnd(title); idx >= 0 {
		title = title[:idx]
	}
	if len(title) > 120 {
		title = title[:120]
	}

	return &Content{
		Title:       title,
		CleanedText: text,
		WordCount:   countWords(text),
		Language:    guessLanguage(baseURL, text),
	}, nil
}

func indexParagraphEnd(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	return -1
}
