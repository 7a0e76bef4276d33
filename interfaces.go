package coalesce

import (
	"context"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// VectorSearcher retrieves candidates by embedding similarity.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, tenantID string) ([]types.Candidate, error)
}

// GraphSearcher retrieves candidates from the knowledge graph.
type GraphSearcher interface {
	Search(ctx context.Context, query, tenantID string) ([]types.Candidate, error)
}

// PassageFuser is the query-side surface of the engine. The HTTP server
// depends on this interface rather than the concrete client.
type PassageFuser interface {
	Fuse(ctx context.Context, query, tenantID string, n int) ([]types.Candidate, error)
}

var _ PassageFuser = (*Client)(nil)
