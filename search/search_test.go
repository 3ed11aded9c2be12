package search

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitedex/ai/mock"
	"github.com/poiesic/sitedex/core"
	"github.com/poiesic/sitedex/vectorstore"
)

func newTestStore(t *testing.T) *vectorstore.Manager {
	t.Helper()
	mgr, err := vectorstore.NewManager(vectorstore.Config{
		Backend:    vectorstore.BackendBadger,
		Collection: "test",
		InMemory:   true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func storeDoc(t *testing.T, store *vectorstore.Manager, category, url string, index int, embedding []float32, text string) {
	t.Helper()
	err := store.Upsert(context.Background(), category, &core.VectorDocument{
		ID:        core.DocumentID(url, index),
		Embedding: embedding,
		Text:      text,
		Metadata: map[string]string{
			core.MetaSourceURL:   url,
			core.MetaCategory:    category,
			core.MetaChunkIndex:  strconv.Itoa(index),
			core.MetaTotalChunks: "8",
		},
	})
	require.NoError(t, err)
}

// queryEmbedder returns a mock whose EmbedText always yields vector.
func queryEmbedder(vector []float32) *mock.Embedder {
	m := mock.NewEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return m
}

func TestSearch_RanksByScore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	storeDoc(t, store, "studium", "https://wiso.example.edu/studium/bachelor", 0,
		[]float32{1, 0, 0, 0}, "Bachelorstudiengang BWL")
	storeDoc(t, store, "studium", "https://wiso.example.edu/studium/master", 0,
		[]float32{0.6, 0.8, 0, 0}, "Masterstudiengang VWL")

	svc, err := NewService(queryEmbedder([]float32{1, 0, 0, 0}), store)
	require.NoError(t, err)

	results, err := svc.Search(ctx, Request{Query: "bachelor bwl", Category: "studium"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Bachelorstudiengang BWL", results[0].Document.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.InDelta(t, 0.6, results[1].Score, 1e-5)
}

func TestSearch_MinScoreFiltersWeakMatches(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	storeDoc(t, store, "studium", "https://wiso.example.edu/studium/bachelor", 0,
		[]float32{1, 0, 0, 0}, "relevant")
	storeDoc(t, store, "studium", "https://wiso.example.edu/kontakt", 0,
		[]float32{0, 1, 0, 0}, "orthogonal")

	svc, err := NewService(queryEmbedder([]float32{1, 0, 0, 0}), store)
	require.NoError(t, err)

	// Zero MinScore falls back to the default floor, which drops the
	// orthogonal document.
	results, err := svc.Search(ctx, Request{Query: "bachelor", Category: "studium"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "relevant", results[0].Document.Text)

	results, err = svc.Search(ctx, Request{Query: "bachelor", Category: "studium", MinScore: -1})
	require.NoError(t, err)
	assert.Len(t, results, 2, "explicit negative floor keeps everything")
}

func TestSearch_LimitCapsResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for i := 0; i < 8; i++ {
		storeDoc(t, store, "forschung", "https://wiso.example.edu/forschung/projekte", i,
			[]float32{1, 0, 0, 0}, "Projektbeschreibung")
	}

	svc, err := NewService(queryEmbedder([]float32{1, 0, 0, 0}), store)
	require.NoError(t, err)

	results, err := svc.Search(ctx, Request{Query: "projekte", Category: "forschung"})
	require.NoError(t, err)
	assert.Len(t, results, DefaultLimit)

	results, err = svc.Search(ctx, Request{Query: "projekte", Category: "forschung", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_FanOutMergesCategories(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	storeDoc(t, store, "studium", "https://wiso.example.edu/studium/bachelor", 0,
		[]float32{0.6, 0.8, 0, 0}, "Studienberatung")
	storeDoc(t, store, "forschung", "https://wiso.example.edu/forschung/projekte", 0,
		[]float32{1, 0, 0, 0}, "Forschungsprojekt")

	svc, err := NewService(queryEmbedder([]float32{1, 0, 0, 0}), store)
	require.NoError(t, err)

	results, err := svc.Search(ctx, Request{Query: "beratung"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Forschungsprojekt", results[0].Document.Text, "fan-out merges by descending score")
	assert.Equal(t, "Studienberatung", results[1].Document.Text)
}

func TestSearch_EmptyCollectionYieldsNoResults(t *testing.T) {
	store := newTestStore(t)
	svc, err := NewService(queryEmbedder([]float32{1, 0, 0, 0}), store)
	require.NoError(t, err)

	results, err := svc.Search(context.Background(), Request{Query: "irgendwas", Category: "international"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Search(context.Background(), Request{Query: "irgendwas"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmptyQueryFails(t *testing.T) {
	store := newTestStore(t)
	svc, err := NewService(queryEmbedder([]float32{1}), store)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), Request{})
	assert.Error(t, err)
}

func TestNewService_RequiresEmbedder(t *testing.T) {
	store := newTestStore(t)
	_, err := NewService(nil, store)
	assert.Error(t, err)
}
