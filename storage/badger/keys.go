package badger

import (
	"fmt"

	"github.com/poiesic/sitedex/core"
)

// Key prefixes for different data types
const (
	urlEntryPrefix = "urlent"
	documentPrefix = "vecdoc"
	sourcePrefix   = "vecsrc"
)

// makeURLKey generates a key for a URL cache entry.
// URLs are stored under their normalized form.
func makeURLKey(normalizedURL string) []byte {
	return []byte(urlEntryPrefix + ":" + normalizedURL)
}

// makeDocumentKey generates a key for a vector document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeSourceKey generates a composite key for the source-URL index.
// Format: prefix:sourceURL:id
func makeSourceKey(sourceURL string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", sourcePrefix, sourceURL, id))
}

// makePartialSourceKey generates the iteration prefix for one source URL.
func makePartialSourceKey(sourceURL string) []byte {
	return []byte(sourcePrefix + ":" + sourceURL + ":")
}
