// Package vectorstore manages the per-category vector collections.
// Each category gets its own physically separate database so that
// category-scoped queries are isolated by construction. A small
// registry maps backend names to constructors; badger is built in.
package vectorstore
