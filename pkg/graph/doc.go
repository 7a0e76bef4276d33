// Package graph retrieves passages from a knowledge graph store through
// three tenant-scoped lookups: entity neighborhood, co-occurrence
// relations, and direct full-text passage match.
package graph
