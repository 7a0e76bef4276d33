// Package coalesce fuses passages retrieved from a vector store, a
// knowledge graph, and a lexical term-overlap ranking into one
// deduplicated, score-ordered result list.
//
// Each query fans out to the vector and graph sources concurrently. A
// failing source degrades gracefully: its contribution becomes empty and
// the surviving sources still produce results. Only an embedding
// dimensionality mismatch aborts the query, since it signals operator
// misconfiguration rather than a transient fault.
package coalesce
