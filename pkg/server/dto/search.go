package dto

import (
	"errors"
	"strings"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// MaxQueryLength bounds the accepted query text.
const MaxQueryLength = 8192

var (
	ErrQueryTooLong = errors.New("query exceeds maximum length")
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query    string `json:"query" binding:"required"`
	TenantID string `json:"tenant_id" binding:"required"`
	Limit    int    `json:"limit"`
}

// Validate performs validation on SearchRequest.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.TenantID) == "" {
		return types.ErrEmptyTenantID
	}
	if r.Limit < 0 {
		return types.ErrInvalidLimit
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// CandidateResult is one fused passage in the response.
type CandidateResult struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Source     string         `json:"source"`
	FinalScore float64        `json:"final_score"`
}

// SearchResponse is the body returned by POST /api/v1/search.
type SearchResponse struct {
	Results []CandidateResult `json:"results"`
	Total   int               `json:"total"`
}

// FromCandidates converts fused candidates into the response shape.
func FromCandidates(candidates []types.Candidate) SearchResponse {
	results := make([]CandidateResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, CandidateResult{
			ID:         c.ID,
			Content:    c.Content,
			Metadata:   c.Metadata,
			Source:     string(c.Source),
			FinalScore: c.FinalScore,
		})
	}
	return SearchResponse{Results: results, Total: len(results)}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
