package coalesce

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-search/coalesce/pkg/types"
)

type fakeVector struct {
	candidates []types.Candidate
	err        error
	calls      int
}

func (f *fakeVector) Search(ctx context.Context, queryVector []float32, tenantID string) ([]types.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeGraph struct {
	candidates []types.Candidate
	err        error
	calls      int
}

func (f *fakeGraph) Search(ctx context.Context, query, tenantID string) ([]types.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Close() error    { return nil }

func candidate(content string, source types.Source, score float64) types.Candidate {
	return types.Candidate{
		Content:     content,
		Metadata:    map[string]any{types.MetadataTenantID: "u1"},
		Source:      source,
		NativeScore: score,
	}
}

func TestFuseMergesBothSources(t *testing.T) {
	vector := &fakeVector{candidates: []types.Candidate{
		candidate("Paris is the capital of France.", types.SourceVector, 0.91),
	}}
	graph := &fakeGraph{candidates: []types.Candidate{
		candidate("The Eiffel Tower stands in Paris.", types.SourceGraphEntity, 0.5),
	}}
	client := New(vector, graph, &fakeEmbedder{})

	results, err := client.Fuse(context.Background(), "capital of France", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, vector.calls)
	assert.Equal(t, 1, graph.calls)
	assert.Equal(t, "Paris is the capital of France.", results[0].Content)
	assert.GreaterOrEqual(t, results[0].FinalScore, results[1].FinalScore)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.FinalScore, 0.0)
	}
}

func TestFuseCollapsesCrossSourceDuplicates(t *testing.T) {
	shared := "Paris is the capital of France."
	vector := &fakeVector{candidates: []types.Candidate{
		candidate(shared, types.SourceVector, 0.91),
	}}
	graph := &fakeGraph{candidates: []types.Candidate{
		candidate(shared, types.SourceChunkText, 0.4),
	}}
	client := New(vector, graph, &fakeEmbedder{})

	results, err := client.Fuse(context.Background(), "capital of France", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The surviving entry keeps the highest native score across duplicates.
	assert.Equal(t, types.SourceVector, results[0].Source)
	assert.InDelta(t, 0.91+1.0, results[0].FinalScore, 1e-6)
}

func TestFuseGraphFailureDegradesToVectorOnly(t *testing.T) {
	vector := &fakeVector{candidates: []types.Candidate{
		candidate("vector passage", types.SourceVector, 0.8),
	}}
	graph := &fakeGraph{err: errors.New("graph store unreachable")}
	client := New(vector, graph, &fakeEmbedder{})

	results, err := client.Fuse(context.Background(), "q", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.SourceVector, results[0].Source)
}

func TestFuseVectorFailureDegradesToGraphOnly(t *testing.T) {
	vector := &fakeVector{err: errors.New("vector store unreachable")}
	graph := &fakeGraph{candidates: []types.Candidate{
		candidate("graph passage", types.SourceGraphEntity, 0.6),
	}}
	client := New(vector, graph, &fakeEmbedder{})

	results, err := client.Fuse(context.Background(), "q", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.SourceGraphEntity, results[0].Source)
}

func TestFuseEmbedderFailureDegradesVectorSource(t *testing.T) {
	vector := &fakeVector{candidates: []types.Candidate{
		candidate("vector passage", types.SourceVector, 0.8),
	}}
	graph := &fakeGraph{candidates: []types.Candidate{
		candidate("graph passage", types.SourceGraphEntity, 0.6),
	}}
	client := New(vector, graph, &fakeEmbedder{err: errors.New("provider timeout")})

	results, err := client.Fuse(context.Background(), "q", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, vector.calls, "vector store must not be queried without an embedding")
	assert.Equal(t, "graph passage", results[0].Content)
}

func TestFuseBothSourcesFailingYieldsEmptyList(t *testing.T) {
	vector := &fakeVector{err: errors.New("down")}
	graph := &fakeGraph{err: errors.New("also down")}
	client := New(vector, graph, &fakeEmbedder{})

	results, err := client.Fuse(context.Background(), "q", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuseDimensionMismatchIsFatal(t *testing.T) {
	vector := &fakeVector{err: fmt.Errorf("stored embedding has 768 dimensions, query has 3: %w",
		types.ErrDimensionMismatch)}
	graph := &fakeGraph{candidates: []types.Candidate{
		candidate("graph passage", types.SourceGraphEntity, 0.6),
	}}
	client := New(vector, graph, &fakeEmbedder{})

	_, err := client.Fuse(context.Background(), "q", "u1", 10)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestFuseValidation(t *testing.T) {
	client := New(&fakeVector{}, &fakeGraph{}, &fakeEmbedder{})

	_, err := client.Fuse(context.Background(), "q", "", 10)
	assert.ErrorIs(t, err, types.ErrEmptyTenantID)

	_, err = client.Fuse(context.Background(), "q", "u1", -1)
	assert.ErrorIs(t, err, types.ErrInvalidLimit)

	results, err := client.Fuse(context.Background(), "   ", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = client.Fuse(context.Background(), "q", "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuseRejectsAlreadyCanceledContext(t *testing.T) {
	client := New(&fakeVector{}, &fakeGraph{}, &fakeEmbedder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fuse(ctx, "q", "u1", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

// blockingVector never returns until the context expires.
type blockingVector struct{}

func (blockingVector) Search(ctx context.Context, queryVector []float32, tenantID string) ([]types.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// blockingGraph never returns until the context expires.
type blockingGraph struct{}

func (blockingGraph) Search(ctx context.Context, query, tenantID string) ([]types.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFuseTimeoutDegradesToEmptyResult(t *testing.T) {
	client := New(blockingVector{}, blockingGraph{}, &fakeEmbedder{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Neither source finishes in time; both contributions go empty and the
	// caller gets an empty list, not the context error.
	results, err := client.Fuse(ctx, "q", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuseTimeoutKeepsCompletedSource(t *testing.T) {
	vector := &fakeVector{candidates: []types.Candidate{
		candidate("vector passage", types.SourceVector, 0.8),
	}}
	client := New(vector, blockingGraph{}, &fakeEmbedder{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results, err := client.Fuse(ctx, "q", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.SourceVector, results[0].Source)
}

func TestFuseTruncatesToRequestedCount(t *testing.T) {
	var cands []types.Candidate
	for i := 0; i < 5; i++ {
		cands = append(cands, candidate(fmt.Sprintf("passage %d", i), types.SourceVector, float64(i)/10))
	}
	client := New(&fakeVector{candidates: cands}, &fakeGraph{}, &fakeEmbedder{})

	results, err := client.Fuse(context.Background(), "q", "u1", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Fewer distinct candidates than requested returns them all.
	results, err = client.Fuse(context.Background(), "q", "u1", 50)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestFuseIsIdempotent(t *testing.T) {
	vector := &fakeVector{candidates: []types.Candidate{
		candidate("alpha passage about rivers", types.SourceVector, 0.7),
		candidate("beta passage about mountains", types.SourceVector, 0.7),
	}}
	graph := &fakeGraph{candidates: []types.Candidate{
		candidate("gamma passage about valleys", types.SourceGraphEntity, 0.7),
	}}
	client := New(vector, graph, &fakeEmbedder{})

	first, err := client.Fuse(context.Background(), "rivers", "u1", 10)
	require.NoError(t, err)
	second, err := client.Fuse(context.Background(), "rivers", "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchAppliesDefaultLimit(t *testing.T) {
	var cands []types.Candidate
	for i := 0; i < 20; i++ {
		cands = append(cands, candidate(fmt.Sprintf("passage %d", i), types.SourceVector, float64(i)/100))
	}
	client := New(&fakeVector{candidates: cands}, &fakeGraph{}, &fakeEmbedder{},
		WithDefaultLimit(4))

	results, err := client.Search(context.Background(), types.Query{Text: "passage", TenantID: "u1"})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}
