package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// DefaultK is the number of candidates requested from the store when the
// caller does not configure one.
const DefaultK = 20

// Adapter turns vector store rows into fusion candidates. It enforces the
// embedding dimensionality check and sorts its own output so behavior does
// not depend on store ordering guarantees.
type Adapter struct {
	store Store
	k     int
}

// NewAdapter creates a vector search adapter requesting up to k candidates
// per query.
func NewAdapter(store Store, k int) *Adapter {
	if k <= 0 {
		k = DefaultK
	}
	return &Adapter{store: store, k: k}
}

// Search returns up to k candidates of source vector for the tenant,
// sorted descending by native score. An empty store result yields an empty
// list, not an error. A stored embedding whose dimensionality disagrees
// with the query embedding is a hard failure.
func (a *Adapter) Search(ctx context.Context, queryVector []float32, tenantID string) ([]types.Candidate, error) {
	rows, err := a.store.Search(ctx, queryVector, tenantID, a.k)
	if err != nil {
		return nil, fmt.Errorf("vector store search failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(rows))
	for _, row := range rows {
		if row.Dimensions != 0 && row.Dimensions != len(queryVector) {
			return nil, fmt.Errorf("stored embedding has %d dimensions, query has %d: %w",
				row.Dimensions, len(queryVector), types.ErrDimensionMismatch)
		}

		metadata := make(map[string]any, len(row.Metadata)+1)
		for k, v := range row.Metadata {
			metadata[k] = v
		}
		metadata[types.MetadataTenantID] = tenantID

		candidates = append(candidates, types.Candidate{
			Content:     row.Content,
			Metadata:    metadata,
			Source:      types.SourceVector,
			NativeScore: row.Score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].NativeScore > candidates[j].NativeScore
	})

	return candidates, nil
}
