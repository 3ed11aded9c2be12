// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls the plain text layer out of PDF documents. Module
// handbooks and examination regulations on university sites ship as
// PDFs, so skipping them loses the densest content on the site.
type PDFExtractor struct{}

func (PDFExtractor) Extract(baseURL string, body []byte) (*Content, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	text := normalizeText(string(raw))
	if text == "" {
		return nil, ErrNoContent
	}

	title := pdfTitle(reader)
	if title == "" {
		title = firstLine(text)
	}

	return &Content{
		Title:       title,
		CleanedText: text,
		WordCount:   countWords(text),
		Language:    guessLanguage(baseURL, text),
	}, nil
}

func pdfTitle(reader *pdf.Reader) string {
	defer func() {
		// Some PDFs carry trailer dictionaries the parser chokes on.
		_ = recover()
	}()
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key("Title").Text())
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > 120 {
		text = text[:120]
	}
	return text
}
