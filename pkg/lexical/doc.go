// Package lexical ranks retrieval candidates by term overlap with the
// query, using a throwaway BM25-style index built per call.
package lexical
