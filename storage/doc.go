// Package storage defines the persistence interfaces for the scraping
// pipeline: the URL cache used for change detection and the per-category
// vector collections. Concrete backends live in subpackages; callers
// depend only on the interfaces here.
package storage
