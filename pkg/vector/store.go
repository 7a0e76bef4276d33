package vector

import "context"

// Row is one passage returned by the backing vector store.
type Row struct {
	Content  string
	Metadata map[string]any
	// Score is the cosine similarity between the query embedding and the
	// stored passage embedding, as computed by the store.
	Score float64
	// Dimensions is the dimensionality of the stored passage embedding as
	// reported by the store. Zero means the store did not report it.
	Dimensions int
}

// Store is the vector store query interface consumed by the adapter.
// Implementations must restrict results to the given tenant.
type Store interface {
	// Search returns up to k passages most similar to the query embedding,
	// scoped to tenantID. An empty result is not an error.
	Search(ctx context.Context, embedding []float32, tenantID string, k int) ([]Row, error)

	// Close releases all resources held by the store.
	Close() error
}
