package vectorstore

import (
	"fmt"
	"sync"

	"github.com/poiesic/sitedex/storage"
	storagebadger "github.com/poiesic/sitedex/storage/badger"
)

// BackendBadger is the built-in badger backend name.
const BackendBadger = "badger"

// OpenFunc opens one named collection. path is empty when inMemory is
// set.
type OpenFunc func(name, path string, inMemory bool) (storage.VectorCollection, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]OpenFunc{
		BackendBadger: openBadger,
	}
)

// RegisterBackend adds a backend under name, replacing any previous
// registration.
func RegisterBackend(name string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = open
}

// Backend resolves a registered backend by name.
func Backend(name string) (OpenFunc, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	open, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownBackend, name)
	}
	return open, nil
}

func openBadger(name, path string, inMemory bool) (storage.VectorCollection, error) {
	backend, err := storagebadger.OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return storagebadger.NewCollection(backend, name), nil
}
