package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(opts ...Option) *Config {
	base := []Option{
		WithPerHostDelay(time.Millisecond),
		WithRetryDelay(time.Millisecond),
		WithTimeout(2 * time.Second),
	}
	return NewConfig(append(base, opts...)...)
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Studium</body></html>"))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig())
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, res.Attempts)
	assert.Contains(t, string(res.Body), "Studium")
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
	assert.False(t, res.FetchedAt.IsZero())
}

func TestFetch_SendsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.UserAgent())
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithUserAgent("sitedex-test/1.0")))
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, res.Err)
	assert.Equal(t, "sitedex-test/1.0", gotUA.Load())
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithMaxRetries(3)))
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetch_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithMaxRetries(3)))
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrMaxRetries)
	assert.Contains(t, res.Err.Error(), "max retries exceeded")
	assert.Equal(t, 4, res.Attempts, "initial attempt plus three retries")
	assert.EqualValues(t, 4, calls.Load())
}

func TestFetch_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithMaxRetries(3)))
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, res.Err)

	var fetchErr *Error
	require.True(t, errors.As(res.Err, &fetchErr))
	assert.True(t, fetchErr.Permanent)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load(), "a 404 must not be retried")
}

func TestFetch_TooManyRequestsIsTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithMaxRetries(2)))
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, res.Err, "HTTP 429 should be retried")
	assert.Equal(t, 2, res.Attempts)
}

func TestFetch_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := fetcher.Fetch(ctx, server.URL)
	require.Error(t, res.Err)
}

func TestFetchAll_PreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page " + r.URL.Path))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithConcurrency(4)))
	require.NoError(t, err)

	urls := []string{server.URL + "/a", server.URL + "/b", server.URL + "/c"}
	results, err := fetcher.FetchAll(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, urls[i], res.URL, "results must align with the input order")
		require.NoError(t, res.Err)
		assert.True(t, strings.HasSuffix(string(res.Body), urls[i][len(server.URL):]))
	}
}

func TestFetchAll_MixedOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithConcurrency(2)))
	require.NoError(t, err)

	results, err := fetcher.FetchAll(context.Background(), []string{server.URL + "/good", server.URL + "/missing"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "one bad URL must not hide the good one")
}

func TestFetch_BodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(testConfig(WithMaxBodySize(100)))
	require.NoError(t, err)

	res := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, res.Err)
	assert.Len(t, res.Body, 100, "body must be truncated at the configured limit")
}
