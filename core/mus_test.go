package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLCacheEntryMUS_RoundTrip(t *testing.T) {
	entry := URLCacheEntry{
		URL:           "https://wiso.example.edu/studium",
		ContentHash:   ContentHash("page body"),
		LastScrapedAt: time.Date(2025, 11, 3, 9, 15, 0, 0, time.UTC),
		Success:       true,
		Category:      "studium",
	}

	bs := make([]byte, URLCacheEntryMUS.Size(entry))
	n := URLCacheEntryMUS.Marshal(entry, bs)
	require.Equal(t, len(bs), n, "Size must match bytes written")

	got, read, err := URLCacheEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, entry.URL, got.URL)
	assert.Equal(t, entry.ContentHash, got.ContentHash)
	assert.True(t, entry.LastScrapedAt.Equal(got.LastScrapedAt))
	assert.True(t, got.Success)
	assert.Equal(t, "studium", got.Category)
}

func TestURLCacheEntryMUS_FailureEntry(t *testing.T) {
	entry := URLCacheEntry{
		URL:           "https://wiso.example.edu/broken",
		LastScrapedAt: time.Now().UTC().Truncate(time.Microsecond),
		Success:       false,
		FailureReason: "HTTP 500",
	}

	bs := make([]byte, URLCacheEntryMUS.Size(entry))
	URLCacheEntryMUS.Marshal(entry, bs)

	got, _, err := URLCacheEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "HTTP 500", got.FailureReason)
	assert.Empty(t, got.ContentHash)
}

func TestVectorDocumentMUS_RoundTrip(t *testing.T) {
	doc := VectorDocument{
		ID:        DocumentID("https://wiso.example.edu/studium", 2),
		Embedding: []float32{0.25, -0.5, 0.125},
		Text:      "Der Bachelorstudiengang umfasst sechs Semester.",
		Metadata: map[string]string{
			MetaSourceURL:  "https://wiso.example.edu/studium",
			MetaCategory:   "studium",
			MetaChunkIndex: "2",
		},
		Stored: time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
	}

	bs := make([]byte, VectorDocumentMUS.Size(doc))
	n := VectorDocumentMUS.Marshal(doc, bs)
	require.Equal(t, len(bs), n)

	got, read, err := VectorDocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Embedding, got.Embedding)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.True(t, doc.Stored.Equal(got.Stored))
}

func TestVectorDocumentMUS_TruncatedData(t *testing.T) {
	doc := VectorDocument{
		ID:        1,
		Embedding: []float32{1},
		Text:      "x",
		Metadata:  map[string]string{},
	}
	bs := make([]byte, VectorDocumentMUS.Size(doc))
	VectorDocumentMUS.Marshal(doc, bs)

	_, _, err := VectorDocumentMUS.Unmarshal(bs[:2])
	assert.Error(t, err, "truncated payload must not decode")
}
