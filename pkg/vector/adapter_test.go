package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-search/coalesce/pkg/config"
	"github.com/coalesce-search/coalesce/pkg/types"
)

type mockStore struct {
	rows     []Row
	err      error
	lastK    int
	lastTID  string
	searches int
}

func (m *mockStore) Search(ctx context.Context, embedding []float32, tenantID string, k int) ([]Row, error) {
	m.searches++
	m.lastK = k
	m.lastTID = tenantID
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockStore) Close() error { return nil }

func TestAdapterShapesAndSortsCandidates(t *testing.T) {
	store := &mockStore{rows: []Row{
		{Content: "France uses the euro.", Score: 0.40, Dimensions: 3},
		{Content: "Paris is the capital of France.", Score: 0.91, Dimensions: 3,
			Metadata: map[string]any{"doc_id": "d1"}},
	}}
	adapter := NewAdapter(store, 10)

	candidates, err := adapter.Search(context.Background(), []float32{1, 2, 3}, "u1")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// The adapter sorts its own output regardless of store ordering.
	assert.Equal(t, 0.91, candidates[0].NativeScore)
	assert.Equal(t, types.SourceVector, candidates[0].Source)
	assert.Equal(t, "u1", candidates[0].TenantID())
	assert.Equal(t, "d1", candidates[0].Metadata["doc_id"])
	assert.Equal(t, 10, store.lastK)
	assert.Equal(t, "u1", store.lastTID)
}

func TestAdapterEmptyResultIsNotAnError(t *testing.T) {
	adapter := NewAdapter(&mockStore{}, 5)
	candidates, err := adapter.Search(context.Background(), []float32{1, 2, 3}, "u1")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAdapterDimensionMismatchIsFatal(t *testing.T) {
	store := &mockStore{rows: []Row{{Content: "x", Score: 0.5, Dimensions: 768}}}
	adapter := NewAdapter(store, 5)

	_, err := adapter.Search(context.Background(), []float32{1, 2, 3}, "u1")
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestAdapterPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	adapter := NewAdapter(&mockStore{err: storeErr}, 5)

	_, err := adapter.Search(context.Background(), []float32{1}, "u1")
	assert.ErrorIs(t, err, storeErr)
}

func TestAdapterDefaultK(t *testing.T) {
	store := &mockStore{}
	adapter := NewAdapter(store, 0)
	_, err := adapter.Search(context.Background(), []float32{1}, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultK, store.lastK)
}

func TestCircuitBreakerStoreOpensAfterFailures(t *testing.T) {
	store := &mockStore{err: errors.New("down")}
	cb := NewCircuitBreakerStore(store, config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}, "vector-store")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := cb.Search(ctx, []float32{1}, "u1", 3)
		assert.Error(t, err)
	}
	// Once open, calls are rejected without reaching the store.
	assert.Less(t, store.searches, 5)
}
