// Package ai defines the embedding abstraction used by the indexing
// pipeline and search. The embedding model itself is opaque: text goes
// in, a fixed-dimension vector comes out. Subpackage openai talks to any
// OpenAI-compatible API; subpackage mock provides a deterministic
// embedder for tests.
package ai
