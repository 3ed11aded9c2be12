package ai

import "context"

// Embedder turns text into vectors for similarity search. Implementations
// must be safe for concurrent use; the pipeline embeds from several
// goroutines at once.
type Embedder interface {
	// EmbedText embeds a single string, typically a search query.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch in one round trip. The result is
	// index-aligned with texts; a failure fails the whole batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
