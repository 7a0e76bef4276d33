package coalesce

import (
	"context"
	"log/slog"

	"github.com/coalesce-search/coalesce/pkg/embedder"
	"github.com/coalesce-search/coalesce/pkg/fusion"
	"github.com/coalesce-search/coalesce/pkg/lexical"
	"github.com/coalesce-search/coalesce/pkg/types"
)

// DefaultLimit is the number of passages returned when the caller does
// not ask for a specific count.
const DefaultLimit = 10

// Client wires the retrieval sources and the fusion ranker together.
type Client struct {
	vector   VectorSearcher
	graph    GraphSearcher
	embedder embedder.Client
	ranker   *fusion.Ranker
	logger   *slog.Logger
	limit    int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDefaultLimit sets the result count used by Search when the query
// does not specify one.
func WithDefaultLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithRanker replaces the default fusion ranker.
func WithRanker(ranker *fusion.Ranker) Option {
	return func(c *Client) { c.ranker = ranker }
}

// New creates a fusion client over the given sources. The vector and
// graph searchers may degrade at query time; they must not be nil.
func New(vector VectorSearcher, graph GraphSearcher, emb embedder.Client, opts ...Option) *Client {
	c := &Client{
		vector:   vector,
		graph:    graph,
		embedder: emb,
		ranker:   fusion.NewRanker(lexical.NewReranker()),
		logger:   slog.Default(),
		limit:    DefaultLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a fusion query described by q. A zero limit falls back to
// the client default.
func (c *Client) Search(ctx context.Context, q types.Query) ([]types.Candidate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = c.limit
	}
	return c.Fuse(ctx, q.Text, q.TenantID, limit)
}

// Close releases resources held by the embedder.
func (c *Client) Close() error {
	return c.embedder.Close()
}
