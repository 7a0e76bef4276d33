package vector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/coalesce-search/coalesce/pkg/config"
)

// CircuitBreakerStore wraps a Store with circuit breaking logic so a
// flapping vector backend fails fast instead of holding every query at its
// timeout.
type CircuitBreakerStore struct {
	store Store
	cb    *gobreaker.CircuitBreaker
}

// NewCircuitBreakerStore creates a circuit-breaking store decorator.
func NewCircuitBreakerStore(store Store, cfg config.CircuitBreakerConfig, name string) *CircuitBreakerStore {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerStore{
		store: store,
		cb:    gobreaker.NewCircuitBreaker(st),
	}
}

// Search implements Store.
func (c *CircuitBreakerStore) Search(ctx context.Context, embedding []float32, tenantID string, k int) ([]Row, error) {
	rows, err := c.cb.Execute(func() (interface{}, error) {
		return c.store.Search(ctx, embedding, tenantID, k)
	})
	if err != nil {
		return nil, fmt.Errorf("vector store call rejected: %w", err)
	}
	return rows.([]Row), nil
}

// Close implements Store.
func (c *CircuitBreakerStore) Close() error {
	return c.store.Close()
}
