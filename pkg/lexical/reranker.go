package lexical

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// BM25 parameters. k1 controls term-frequency saturation, b controls
// length normalization.
const (
	k1 = 1.2
	b  = 0.75
)

// ErrNoSignal is returned when no lexical ranking can be computed, e.g.
// the query tokenizes to nothing. Callers treat it as "no lexical signal
// available" rather than a hard failure.
var ErrNoSignal = errors.New("no lexical signal available")

// Reranker builds an ephemeral term-frequency index over a candidate set
// and ranks the candidates by pure term overlap with the query. A fresh
// index is built per call; the reranker holds no state across calls.
type Reranker struct{}

// NewReranker creates a lexical reranker.
func NewReranker() *Reranker {
	return &Reranker{}
}

// Rank indexes the content of every candidate and returns a mapping from
// candidate ID to its 1-based lexical rank (rank 1 = best match).
// Candidates sharing an ID are indexed once; the caller is expected to
// pass a deduplicated set. An empty candidate list yields an empty map.
func (r *Reranker) Rank(query string, candidates []types.Candidate) (map[string]int, error) {
	if len(candidates) == 0 {
		return map[string]int{}, nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, ErrNoSignal
	}

	type doc struct {
		id    string
		terms map[string]int
		len   int
		order int
	}

	seen := make(map[string]bool, len(candidates))
	docs := make([]*doc, 0, len(candidates))
	docFreq := make(map[string]int)
	totalLen := 0

	for i, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		terms := tokenize(c.Content)
		freq := make(map[string]int, len(terms))
		for _, t := range terms {
			freq[t]++
		}
		for t := range freq {
			docFreq[t]++
		}
		totalLen += len(terms)
		docs = append(docs, &doc{id: c.ID, terms: freq, len: len(terms), order: i})
	}

	avgLen := float64(totalLen) / float64(len(docs))
	if avgLen == 0 {
		avgLen = 1
	}
	n := float64(len(docs))

	type scored struct {
		id    string
		score float64
		order int
	}
	results := make([]scored, 0, len(docs))
	for _, d := range docs {
		score := 0.0
		for _, term := range queryTerms {
			tf := float64(d.terms[term])
			if tf == 0 {
				continue
			}
			df := float64(docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := k1*(1-b+b*float64(d.len)/avgLen) + tf
			score += idf * (tf * (k1 + 1)) / norm
		}
		results = append(results, scored{id: d.id, score: score, order: d.order})
	}

	// Ties keep input order so repeated calls rank identically.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	ranks := make(map[string]int, len(results))
	for i, res := range results {
		ranks[res.id] = i + 1
	}
	return ranks, nil
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
