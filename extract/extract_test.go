package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html lang="de">
<head>
<title>Studium - WiSo Fakultät</title>
<meta name="description" content="Bachelor- und Masterstudiengänge der Fakultät">
<script>console.log("tracking");</script>
<style>.nav { color: red; }</style>
</head>
<body>
<nav><a href="/studium">Studium</a><a href="/kontakt">Kontakt</a></nav>
<header>Kopfzeile der Seite</header>
<main>
<h1>Studienangebot</h1>
<p>Die Fakultät bietet Bachelor- und Masterstudiengänge an.</p>
<p>Weitere Informationen finden Sie unter <a href="/studium/bachelor">Bachelor</a>
und <a href="https://other.example.com/page">extern</a>.</p>
</main>
<footer>Impressum | Datenschutz</footer>
</body>
</html>`

func TestHTMLExtractor_CleansBoilerplate(t *testing.T) {
	e := NewHTMLExtractor()

	content, err := e.Extract("https://wiso.example.edu/studium", []byte(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "Studium - WiSo Fakultät", content.Title)
	assert.Equal(t, "Bachelor- und Masterstudiengänge der Fakultät", content.Description)
	assert.Contains(t, content.CleanedText, "Die Fakultät bietet Bachelor- und Masterstudiengänge an.")
	assert.NotContains(t, content.CleanedText, "console.log", "scripts must be stripped")
	assert.NotContains(t, content.CleanedText, "color: red", "styles must be stripped")
	assert.NotContains(t, content.CleanedText, "Kopfzeile", "header chrome must be stripped")
	assert.NotContains(t, content.CleanedText, "Impressum", "footer chrome must be stripped")
	assert.Positive(t, content.WordCount)
	assert.Equal(t, "de", content.Language)
}

func TestHTMLExtractor_ResolvesLinks(t *testing.T) {
	e := NewHTMLExtractor()

	content, err := e.Extract("https://wiso.example.edu/studium", []byte(samplePage))
	require.NoError(t, err)

	assert.Contains(t, content.Links, "https://wiso.example.edu/studium/bachelor")
	assert.Contains(t, content.Links, "https://other.example.com/page")
	assert.Contains(t, content.Links, "https://wiso.example.edu/kontakt", "nav links still count as outgoing links")
}

func TestHTMLExtractor_FallsBackToH1Title(t *testing.T) {
	e := NewHTMLExtractor()
	page := `<html><body><h1>Forschungsprojekte</h1><p>Details zu laufenden Projekten und Publikationen.</p></body></html>`

	content, err := e.Extract("https://wiso.example.edu/forschung", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Forschungsprojekte", content.Title)
}

func TestHTMLExtractor_EmptyPage(t *testing.T) {
	e := NewHTMLExtractor()

	_, err := e.Extract("https://wiso.example.edu/leer", []byte(`<html><body><script>x()</script></body></html>`))
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestPlainTextExtractor(t *testing.T) {
	body := "Prüfungsordnung   für den\nBachelorstudiengang.\n\n\n\nDie Regelstudienzeit beträgt sechs Semester."

	content, err := PlainTextExtractor{}.Extract("https://wiso.example.edu/po.txt", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Prüfungsordnung für den Bachelorstudiengang.", content.CleanedText[:strings.Index(content.CleanedText, "\n")])
	assert.Contains(t, content.CleanedText, "\n\n", "paragraph break must survive normalization")
	assert.NotContains(t, content.CleanedText, "   ", "space runs must collapse")

	_, err = PlainTextExtractor{}.Extract("https://wiso.example.edu/empty.txt", []byte("   \n \n"))
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestRegistry_RoutesByContentType(t *testing.T) {
	r := NewRegistry()

	assert.IsType(t, &HTMLExtractor{}, r.For("text/html; charset=utf-8"))
	assert.IsType(t, PlainTextExtractor{}, r.For("text/plain"))
	assert.IsType(t, PDFExtractor{}, r.For("application/pdf"))
	assert.IsType(t, &HTMLExtractor{}, r.For("application/octet-stream"), "unknown types fall back to HTML")
	assert.IsType(t, &HTMLExtractor{}, r.For(""))
}

func TestGuessLanguage(t *testing.T) {
	assert.Equal(t, "en", guessLanguage("https://wiso.example.edu/en/studies", ""))
	assert.Equal(t, "de", guessLanguage("https://wiso.example.edu/de/studium", ""))
	assert.Equal(t, "en", guessLanguage("https://example.edu/page",
		"The faculty offers programs for students and you will find all the information that you need."))
	assert.Equal(t, "de", guessLanguage("https://example.edu/page",
		"Die Fakultät bietet Studiengänge an und sie finden die Informationen auf dieser Seite."))
}

func TestNormalizeText(t *testing.T) {
	in := "  erste   Zeile  \n\n\n  zweite Zeile \nnoch eine\n\n"
	out := normalizeText(in)
	assert.Equal(t, "erste Zeile\n\nzweite Zeile noch eine", out)
}
