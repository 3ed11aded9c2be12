package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored documents.
// It is derived deterministically from document content or identity.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentHash computes a hex-encoded BLAKE2b-256 fingerprint of text.
// Used for change detection in the URL cache and exact-duplicate checks.
func ContentHash(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentID derives the stable identifier for a chunk document from its
// source URL and chunk index. Re-scraping the same URL overwrites the
// same IDs instead of accumulating stale documents.
func DocumentID(sourceURL string, chunkIndex int) ID {
	return IDFromContent(fmt.Sprintf("%s#%d", sourceURL, chunkIndex))
}

// FetchStatus describes the outcome of one fetch attempt.
type FetchStatus int

const (
	// FetchSuccess means the page was fetched and extracted.
	FetchSuccess FetchStatus = iota + 1
	// FetchFailed means the page could not be fetched or extracted.
	FetchFailed
	// FetchSkipped means the URL cache marked the page as unchanged.
	FetchSkipped
)

func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchFailed:
		return "failed"
	case FetchSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ScrapedPage is the immutable record of one fetch attempt.
// A re-scrape with a different content hash supersedes it with a new record.
type ScrapedPage struct {
	URL         string
	FetchedAt   time.Time
	Status      FetchStatus
	RawHash     string // fingerprint of the cleaned text
	Title       string
	Description string
	CleanedText string
	WordCount   int
	Links       []string
	Language    string
	ErrorReason string // set when Status is FetchFailed
}

// URLCacheEntry records the last scrape of a URL. ContentHash always
// reflects the most recently successfully stored page content; a failed
// scrape updates FailureReason but never ContentHash.
type URLCacheEntry struct {
	URL           string
	ContentHash   string
	LastScrapedAt time.Time
	Success       bool
	Category      string
	FailureReason string
}

// ContentChunk is one overlapping segment of a page's cleaned text.
// Index and Total are consistent across all chunks of one page.
type ContentChunk struct {
	ID         ID
	SourceURL  string
	Index      int
	Total      int
	Text       string
	Category   string
	Confidence float32
}

// VectorDocument is the unit stored in a vector collection. It is
// immutable after insertion; updates are delete-and-reinsert so the
// vector, text, and metadata never drift apart.
type VectorDocument struct {
	ID        ID
	Embedding []float32
	Text      string
	Metadata  map[string]string
	Stored    time.Time
}

// Metadata keys stamped onto every VectorDocument.
const (
	MetaSourceURL   = "source_url"
	MetaTitle       = "title"
	MetaDescription = "description"
	MetaDomain      = "domain"
	MetaTimestamp   = "timestamp"
	MetaWordCount   = "word_count"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaCategory    = "category"
	MetaLanguage    = "language"
)

// SearchResult pairs a stored document with its similarity score.
type SearchResult struct {
	Document *VectorDocument
	Score    float32
}

// RunState is the orchestrator's batch state machine.
type RunState int

const (
	RunPending RunState = iota
	RunFetching
	RunExtracting
	RunDeduping
	RunCategorizing
	RunChunking
	RunEmbedding
	RunIndexing
	RunCompleted
	RunFailed
)

var runStateNames = map[RunState]string{
	RunPending:      "pending",
	RunFetching:     "fetching",
	RunExtracting:   "extracting",
	RunDeduping:     "deduping",
	RunCategorizing: "categorizing",
	RunChunking:     "chunking",
	RunEmbedding:    "embedding",
	RunIndexing:     "indexing",
	RunCompleted:    "completed",
	RunFailed:       "failed",
}

func (s RunState) String() string {
	if name, ok := runStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// URLFailure names a URL that could not be processed and why.
type URLFailure struct {
	URL    string
	Reason string
}

// ChunkFailure names a chunk that could not be embedded or indexed.
type ChunkFailure struct {
	SourceURL string
	Index     int
	Reason    string
}

// PipelineRun is the write-once summary of one orchestrator invocation.
// It is never mutated after the run reaches a terminal state.
type PipelineRun struct {
	RunID                string
	StartedAt            time.Time
	FinishedAt           time.Time
	State                RunState
	URLsRequested        int
	URLsSucceeded        int
	URLsFailed           int
	URLsSkippedUnchanged int
	ChunksCreated        int
	ChunksIndexed        int
	DuplicatesRemoved    int
	PerCategoryCounts    map[string]int
	FailedURLs           []URLFailure
	FailedChunks         []ChunkFailure
}
