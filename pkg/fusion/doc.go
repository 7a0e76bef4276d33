// Package fusion merges candidates from the vector and graph retrieval
// sources into one deduplicated, score-ordered result list.
package fusion
