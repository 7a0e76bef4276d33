package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceValid(t *testing.T) {
	for _, s := range []Source{SourceVector, SourceGraphEntity, SourceGraphRelation, SourceChunkText} {
		assert.True(t, s.Valid(), "source %q should be valid", s)
	}
	assert.False(t, Source("bm25").Valid())
	assert.False(t, Source("").Valid())
}

func TestCandidateTenantID(t *testing.T) {
	c := &Candidate{
		Content:  "Paris is the capital of France.",
		Metadata: map[string]any{MetadataTenantID: "u1"},
		Source:   SourceVector,
	}
	assert.Equal(t, "u1", c.TenantID())
	require.NoError(t, c.Validate())

	empty := &Candidate{Content: "something"}
	assert.Equal(t, "", empty.TenantID())
	assert.ErrorIs(t, empty.Validate(), ErrEmptyTenantID)

	noContent := &Candidate{Metadata: map[string]any{MetadataTenantID: "u1"}}
	assert.ErrorIs(t, noContent.Validate(), ErrEmptyContent)
}

func TestQueryValidate(t *testing.T) {
	q := &Query{Text: "capital of France", TenantID: "u1", Limit: 5}
	require.NoError(t, q.Validate())

	assert.ErrorIs(t, (&Query{Text: "x", Limit: 1}).Validate(), ErrEmptyTenantID)
	assert.ErrorIs(t, (&Query{Text: "x", TenantID: "u1", Limit: -1}).Validate(), ErrInvalidLimit)

	// Zero limit is allowed: callers may probe for "anything found".
	assert.NoError(t, (&Query{TenantID: "u1"}).Validate())
}

func TestEntityValidate(t *testing.T) {
	e := &Entity{Name: "Paris", EntityType: "location", TenantID: "u1"}
	require.NoError(t, e.Validate())
	assert.Error(t, (&Entity{TenantID: "u1"}).Validate())
	assert.ErrorIs(t, (&Entity{Name: "Paris"}).Validate(), ErrEmptyTenantID)
}
