// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/sitedex/core"
)

func newTestCollection(t *testing.T, name string) *Collection {
	t.Helper()
	coll, err := NewMemoryCollection(name)
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	t.Cleanup(func() {
		if err := coll.Close(); err != nil {
			t.Errorf("failed to close collection: %v", err)
		}
	})
	return coll
}

func testDocument(sourceURL string, index, total int, embedding []float32) *core.VectorDocument {
	return &core.VectorDocument{
		ID:        core.DocumentID(sourceURL, index),
		Embedding: embedding,
		Text:      fmt.Sprintf("chunk %d of %s", index, sourceURL),
		Metadata: map[string]string{
			core.MetaSourceURL:   sourceURL,
			core.MetaCategory:    "studium",
			core.MetaChunkIndex:  fmt.Sprintf("%d", index),
			core.MetaTotalChunks: fmt.Sprintf("%d", total),
		},
	}
}

func TestCollection_UpsertAndCount(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	docs := []*core.VectorDocument{
		testDocument("https://wiso.example.edu/a", 0, 2, []float32{1, 0}),
		testDocument("https://wiso.example.edu/a", 1, 2, []float32{0, 1}),
		testDocument("https://wiso.example.edu/b", 0, 1, []float32{1, 1}),
	}
	if err := coll.Upsert(ctx, docs...); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	n, err := coll.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 documents, got %d", n)
	}
}

func TestCollection_UpsertIsIdempotent(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	doc := testDocument("https://wiso.example.edu/a", 0, 1, []float32{1, 0})
	for i := 0; i < 3; i++ {
		if err := coll.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}

	n, err := coll.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("re-upserting the same document should not grow the collection, got %d", n)
	}
}

func TestCollection_UpsertReplacesContent(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	doc := testDocument("https://wiso.example.edu/a", 0, 1, []float32{1, 0})
	if err := coll.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	updated := testDocument("https://wiso.example.edu/a", 0, 1, []float32{0, 1})
	updated.Text = "updated text"
	if err := coll.Upsert(ctx, updated); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	chunks, err := coll.ListChunks(ctx, 0)
	if err != nil {
		t.Fatalf("ListChunks failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "updated text" {
		t.Errorf("expected replaced text, got %q", chunks[0].Text)
	}
}

func TestCollection_SearchRankingAndThreshold(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	// Unnormalized on purpose: Upsert and Search both normalize.
	docs := []*core.VectorDocument{
		testDocument("https://wiso.example.edu/exact", 0, 1, []float32{2, 0}),
		testDocument("https://wiso.example.edu/close", 0, 1, []float32{3, 1}),
		testDocument("https://wiso.example.edu/orthogonal", 0, 1, []float32{0, 5}),
	}
	if err := coll.Upsert(ctx, docs...); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := coll.Search(ctx, []float32{1, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(results))
	}
	if results[0].Document.Metadata[core.MetaSourceURL] != "https://wiso.example.edu/exact" {
		t.Errorf("best match should rank first, got %s", results[0].Document.Metadata[core.MetaSourceURL])
	}
	if results[0].Score < results[1].Score {
		t.Error("results must be sorted by descending score")
	}
	if results[0].Score < 0.999 {
		t.Errorf("identical direction should score ~1, got %f", results[0].Score)
	}
}

func TestCollection_SearchScoresAreCosine(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	// Norm 5; a raw dot product against the query would report 3.
	doc := testDocument("https://wiso.example.edu/lang", 0, 1, []float32{3, 4})
	if err := coll.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := coll.Search(ctx, []float32{1, 0}, -1, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	score := results[0].Score
	if score < -1 || score > 1 {
		t.Errorf("score %f outside cosine range [-1,1]", score)
	}
	if diff := score - 0.6; diff < -0.001 || diff > 0.001 {
		t.Errorf("expected cosine 0.6, got %f", score)
	}
}

func TestCollection_SearchLimit(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		doc := testDocument(fmt.Sprintf("https://wiso.example.edu/p%d", i), 0, 1, []float32{1, float32(i) * 0.01})
		if err := coll.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	results, err := coll.Search(ctx, []float32{1, 0}, 0, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected limit of 3 results, got %d", len(results))
	}
}

func TestCollection_SearchEmptyCollection(t *testing.T) {
	coll := newTestCollection(t, "test")

	results, err := coll.Search(context.Background(), []float32{1, 0}, 0.1, 5)
	if err != nil {
		t.Fatalf("Search on empty collection should not fail: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestCollection_DeleteBySource(t *testing.T) {
	coll := newTestCollection(t, "test")
	ctx := context.Background()

	docs := []*core.VectorDocument{
		testDocument("https://wiso.example.edu/a", 0, 2, []float32{1, 0}),
		testDocument("https://wiso.example.edu/a", 1, 2, []float32{0, 1}),
		testDocument("https://wiso.example.edu/b", 0, 1, []float32{1, 1}),
	}
	if err := coll.Upsert(ctx, docs...); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	deleted, err := coll.DeleteBySource(ctx, "https://wiso.example.edu/a")
	if err != nil {
		t.Fatalf("DeleteBySource failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	n, err := coll.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 remaining document, got %d", n)
	}
}

func TestCollection_IsolatedFromOtherCollections(t *testing.T) {
	first := newTestCollection(t, "sitedex_studium")
	second := newTestCollection(t, "sitedex_forschung")
	ctx := context.Background()

	doc := testDocument("https://wiso.example.edu/studium", 0, 1, []float32{1, 0})
	if err := first.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := second.Search(ctx, []float32{1, 0}, 0, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Error("a document must never leak into another collection")
	}
}

func TestCollection_UpsertRejectsInvalidDocument(t *testing.T) {
	coll := newTestCollection(t, "test")

	doc := testDocument("https://wiso.example.edu/a", 0, 1, nil)
	if err := coll.Upsert(context.Background(), doc); err == nil {
		t.Error("document without an embedding must be rejected")
	}
}
