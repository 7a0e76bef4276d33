package coalesce

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// Fuse retrieves candidates from both sources concurrently, merges them,
// and runs the fusion ranking. It returns at most n passages, fewer when
// the distinct candidate pool is smaller.
//
// A single failing source is logged and contributes nothing; when both
// sources fail the result is an empty list, not an error. A context
// timeout mid-flight degrades the same way: sources that did not finish
// contribute nothing. The one fatal retrieval failure is
// types.ErrDimensionMismatch, which means the configured embedder
// disagrees with the indexed corpus.
func (c *Client) Fuse(ctx context.Context, query, tenantID string, n int) ([]types.Candidate, error) {
	if tenantID == "" {
		return nil, types.ErrEmptyTenantID
	}
	if n < 0 {
		return nil, types.ErrInvalidLimit
	}
	if n == 0 || strings.TrimSpace(query) == "" {
		return []types.Candidate{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		wg          sync.WaitGroup
		vectorCands []types.Candidate
		graphCands  []types.Candidate
		vectorErr   error
		graphErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorCands, vectorErr = c.vectorSearch(ctx, query, tenantID)
	}()
	go func() {
		defer wg.Done()
		graphCands, graphErr = c.graph.Search(ctx, query, tenantID)
	}()
	wg.Wait()

	if vectorErr != nil {
		if errors.Is(vectorErr, types.ErrDimensionMismatch) {
			return nil, vectorErr
		}
		c.logger.Warn("vector source degraded",
			"tenant_id", tenantID, "error", vectorErr)
		vectorCands = nil
	}
	if graphErr != nil {
		c.logger.Warn("graph source degraded",
			"tenant_id", tenantID, "error", graphErr)
		graphCands = nil
	}

	// Vector candidates go first so duplicate passages resolve to the same
	// surviving entry on every run.
	merged := make([]types.Candidate, 0, len(vectorCands)+len(graphCands))
	merged = append(merged, vectorCands...)
	merged = append(merged, graphCands...)

	return c.ranker.Fuse(query, tenantID, merged, n), nil
}

// vectorSearch embeds the query and runs the similarity lookup. An
// embedding failure degrades the vector source like any other store
// fault; it never reaches the caller directly.
func (c *Client) vectorSearch(ctx context.Context, query, tenantID string) ([]types.Candidate, error) {
	embedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.vector.Search(ctx, embedding, tenantID)
}
