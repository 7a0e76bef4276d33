package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/coalesce-search/coalesce/pkg/types"
)

const (
	// RankEpsilon keeps the rank-to-score conversion finite at rank zero.
	RankEpsilon = 1e-9
	// DefaultLexicalScore is assigned to candidates missing from the
	// lexical ranking, so a candidate strongly favored by vector or graph
	// similarity is not discarded purely for lacking term overlap.
	DefaultLexicalScore = 0.1
)

// LexicalRanker maps a deduplicated candidate set to 1-based lexical ranks.
type LexicalRanker interface {
	Rank(query string, candidates []types.Candidate) (map[string]int, error)
}

// Ranker merges candidates from all retrieval sources, deduplicates them,
// folds in the lexical signal, and produces the final ranked list. It
// performs no I/O; all inputs are already in memory.
type Ranker struct {
	lexical LexicalRanker
}

// NewRanker creates a fusion ranker backed by the given lexical ranker.
func NewRanker(lexical LexicalRanker) *Ranker {
	return &Ranker{lexical: lexical}
}

// DedupKey derives the stable identity of a passage from its tenant and
// content. Candidates from different sources describing the same passage
// collapse to one entry under this key.
func DedupKey(tenantID, content string) string {
	h := sha256.New()
	h.Write([]byte(tenantID))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// Deduplicate collapses candidates that describe the same underlying
// passage, keeping the first occurrence and the highest native score seen
// across duplicates. Candidates without an ID get the content-based key.
func (r *Ranker) Deduplicate(tenantID string, candidates []types.Candidate) []types.Candidate {
	deduped := make([]types.Candidate, 0, len(candidates))
	index := make(map[string]int, len(candidates))

	for _, c := range candidates {
		key := DedupKey(tenantID, c.Content)
		if c.ID == "" {
			c.ID = key
		}
		if i, ok := index[key]; ok {
			if c.NativeScore > deduped[i].NativeScore {
				deduped[i].NativeScore = c.NativeScore
			}
			continue
		}
		index[key] = len(deduped)
		deduped = append(deduped, c)
	}
	return deduped
}

// Fuse runs the final stage: dedup, lexical scoring, additive final score,
// stable descending sort, and truncation to n. Native scores from
// different sources are summed with the lexical score without cross-source
// normalization; that additive formula is part of the contract.
func (r *Ranker) Fuse(query, tenantID string, candidates []types.Candidate, n int) []types.Candidate {
	if n <= 0 {
		return []types.Candidate{}
	}

	deduped := r.Deduplicate(tenantID, candidates)
	if len(deduped) == 0 {
		return []types.Candidate{}
	}

	ranks, err := r.lexical.Rank(query, deduped)
	for i := range deduped {
		lexScore := 0.0
		switch {
		case err != nil:
			// No lexical signal: fall back to the native score alone.
		case ranks[deduped[i].ID] > 0:
			lexScore = 1.0 / (float64(ranks[deduped[i].ID]) + RankEpsilon)
		default:
			lexScore = DefaultLexicalScore
		}
		final := deduped[i].NativeScore + lexScore
		if final < 0 {
			final = 0
		}
		deduped[i].FinalScore = final
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].FinalScore > deduped[j].FinalScore
	})

	if n < len(deduped) {
		deduped = deduped[:n]
	}
	return deduped
}
