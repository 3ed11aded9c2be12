// Package pipeline orchestrates one scrape batch end to end. Seed URLs
// pass through the URL cache freshness check, then a fetch pool, then
// extraction, batch-scoped deduplication, categorization and chunking,
// and finally an embedding batcher that indexes chunks into the
// per-category vector collections. Every run yields a write-once
// report; per-URL failures never abort the batch.
package pipeline
