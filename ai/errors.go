package ai

import "errors"

var (
	// ErrEmbeddingFailed indicates the embedding provider returned an error.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
