package vectorstore

import "fmt"

// DefaultCollection is the base collection name.
const DefaultCollection = "sitedex"

// Config describes where and how collections are stored.
type Config struct {
	// Backend names the registered storage backend.
	Backend string
	// BaseDir holds one database directory per collection. Ignored
	// when InMemory is set.
	BaseDir string
	// Collection is the base name; category collections are named
	// <Collection>_<category>.
	Collection string
	// InMemory keeps collections in memory, for tests.
	InMemory bool
}

// DefaultConfig returns a badger-backed on-disk configuration.
func DefaultConfig(baseDir string) Config {
	return Config{
		Backend:    BackendBadger,
		BaseDir:    baseDir,
		Collection: DefaultCollection,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("backend name required")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection name required")
	}
	if !c.InMemory && c.BaseDir == "" {
		return fmt.Errorf("base directory required for on-disk storage")
	}
	return nil
}
