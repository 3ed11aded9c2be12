package crawl

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(maxPages int) Config {
	return Config{
		MaxPages:    maxPages,
		Parallelism: 2,
		Delay:       time.Millisecond,
		UserAgent:   "sitedex-test/1.0",
	}
}

func linkedSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	page := func(title string, links ...string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<html><body><h1>%s</h1>", title)
			for _, link := range links {
				fmt.Fprintf(w, `<a href=%q>%s</a>`, link, link)
			}
			fmt.Fprint(w, "</body></html>")
		}
	}
	mux.HandleFunc("/", page("Start", "/studium", "/kontakt", "/assets/style.css", "https://extern.example.com/"))
	mux.HandleFunc("/studium", page("Studium", "/studium/bachelor", "/kontakt"))
	mux.HandleFunc("/studium/bachelor", page("Bachelor", "/"))
	mux.HandleFunc("/kontakt", page("Kontakt"))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover_WalksWholeSite(t *testing.T) {
	srv := linkedSite(t)
	crawler := New(testConfig(100), slog.Default())

	found, err := crawler.Discover(srv.URL + "/")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		srv.URL + "/",
		srv.URL + "/studium",
		srv.URL + "/studium/bachelor",
		srv.URL + "/kontakt",
	}, found)
	assert.Equal(t, srv.URL+"/", found[0], "start URL comes first")
}

func TestDiscover_StaysOnDomainAndSkipsAssets(t *testing.T) {
	srv := linkedSite(t)
	crawler := New(testConfig(100), slog.Default())

	found, err := crawler.Discover(srv.URL + "/")
	require.NoError(t, err)

	for _, url := range found {
		assert.Contains(t, url, srv.URL, "discovered URL must stay on the start domain")
		assert.NotContains(t, url, ".css")
	}
}

func TestDiscover_RespectsMaxPages(t *testing.T) {
	srv := linkedSite(t)
	crawler := New(testConfig(2), slog.Default())

	found, err := crawler.Discover(srv.URL + "/")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(found), 2)
	assert.NotEmpty(t, found)
}

func TestDiscover_NoDuplicates(t *testing.T) {
	srv := linkedSite(t)
	crawler := New(testConfig(100), slog.Default())

	found, err := crawler.Discover(srv.URL + "/")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, url := range found {
		assert.False(t, seen[url], "duplicate %s", url)
		seen[url] = true
	}
}

func TestDiscover_InvalidStartURL(t *testing.T) {
	crawler := New(testConfig(10), slog.Default())

	_, err := crawler.Discover("not a url")
	assert.Error(t, err)

	_, err = crawler.Discover("")
	assert.Error(t, err)
}
