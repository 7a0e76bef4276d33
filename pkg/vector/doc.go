// Package vector retrieves passages by embedding similarity from a
// tenant-scoped vector store and shapes them into fusion candidates.
package vector
