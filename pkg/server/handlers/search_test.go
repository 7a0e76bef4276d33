package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-search/coalesce/pkg/server/dto"
	"github.com/coalesce-search/coalesce/pkg/types"
)

type fakeFuser struct {
	candidates []types.Candidate
	err        error

	lastQuery  string
	lastTenant string
	lastLimit  int
}

func (f *fakeFuser) Fuse(ctx context.Context, query, tenantID string, n int) ([]types.Candidate, error) {
	f.lastQuery = query
	f.lastTenant = tenantID
	f.lastLimit = n
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func performSearch(t *testing.T, fuser *fakeFuser, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/api/v1/search", NewSearchHandler(fuser).Search)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchReturnsFusedResults(t *testing.T) {
	fuser := &fakeFuser{candidates: []types.Candidate{
		{
			ID:         "abc",
			Content:    "Paris is the capital of France.",
			Source:     types.SourceVector,
			FinalScore: 1.91,
		},
	}}

	w := performSearch(t, fuser, dto.SearchRequest{
		Query:    "capital of France",
		TenantID: "u1",
		Limit:    5,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Paris is the capital of France.", resp.Results[0].Content)
	assert.Equal(t, "vector", resp.Results[0].Source)
	assert.InDelta(t, 1.91, resp.Results[0].FinalScore, 1e-9)

	assert.Equal(t, "capital of France", fuser.lastQuery)
	assert.Equal(t, "u1", fuser.lastTenant)
	assert.Equal(t, 5, fuser.lastLimit)
}

func TestSearchRejectsMissingFields(t *testing.T) {
	w := performSearch(t, &fakeFuser{}, map[string]any{"query": "q"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performSearch(t, &fakeFuser{}, map[string]any{"tenant_id": "u1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchRejectsNegativeLimit(t *testing.T) {
	w := performSearch(t, &fakeFuser{}, dto.SearchRequest{
		Query: "q", TenantID: "u1", Limit: -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchDimensionMismatchSurfacesAsConfigError(t *testing.T) {
	fuser := &fakeFuser{err: fmt.Errorf("stored embedding has 768 dimensions, query has 384: %w",
		types.ErrDimensionMismatch)}

	w := performSearch(t, fuser, dto.SearchRequest{Query: "q", TenantID: "u1"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dimension_mismatch", resp.Error)
}

func TestSearchInternalErrorsAreOpaque(t *testing.T) {
	fuser := &fakeFuser{err: errors.New("ranker blew up")}

	w := performSearch(t, fuser, dto.SearchRequest{Query: "q", TenantID: "u1"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "search_failed", resp.Error)
}

func TestSearchDefaultsLimit(t *testing.T) {
	fuser := &fakeFuser{}
	w := performSearch(t, fuser, dto.SearchRequest{Query: "q", TenantID: "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, fuser.lastLimit, 0)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	w := performSearch(t, &fakeFuser{}, dto.SearchRequest{Query: "q", TenantID: "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Results)
}
