package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/coalesce-search/coalesce/pkg/config"
)

// CircuitBreakerDriver wraps a Driver with circuit breaking logic shared
// across all five query shapes: once the graph store starts failing, every
// lookup fails fast until the probe window reopens.
type CircuitBreakerDriver struct {
	driver Driver
	cb     *gobreaker.CircuitBreaker
}

// NewCircuitBreakerDriver creates a circuit-breaking driver decorator.
func NewCircuitBreakerDriver(driver Driver, cfg config.CircuitBreakerConfig, name string) *CircuitBreakerDriver {
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

	return &CircuitBreakerDriver{
		driver: driver,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// SearchEntities implements Driver.
func (c *CircuitBreakerDriver) SearchEntities(ctx context.Context, query, tenantID string, limit int) ([]EntityHit, error) {
	hits, err := c.cb.Execute(func() (interface{}, error) {
		return c.driver.SearchEntities(ctx, query, tenantID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("graph store call rejected: %w", err)
	}
	return hits.([]EntityHit), nil
}

// Neighborhood implements Driver.
func (c *CircuitBreakerDriver) Neighborhood(ctx context.Context, entityUUIDs []string, tenantID string, depth int) ([]EntityHit, error) {
	hits, err := c.cb.Execute(func() (interface{}, error) {
		return c.driver.Neighborhood(ctx, entityUUIDs, tenantID, depth)
	})
	if err != nil {
		return nil, fmt.Errorf("graph store call rejected: %w", err)
	}
	return hits.([]EntityHit), nil
}

// PassagesByEntities implements Driver.
func (c *CircuitBreakerDriver) PassagesByEntities(ctx context.Context, entityUUIDs []string, tenantID string, limit int) ([]PassageHit, error) {
	hits, err := c.cb.Execute(func() (interface{}, error) {
		return c.driver.PassagesByEntities(ctx, entityUUIDs, tenantID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("graph store call rejected: %w", err)
	}
	return hits.([]PassageHit), nil
}

// CooccurringPairs implements Driver.
func (c *CircuitBreakerDriver) CooccurringPairs(ctx context.Context, entityUUIDs []string, tenantID string, limit int) ([]RelationHit, error) {
	hits, err := c.cb.Execute(func() (interface{}, error) {
		return c.driver.CooccurringPairs(ctx, entityUUIDs, tenantID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("graph store call rejected: %w", err)
	}
	return hits.([]RelationHit), nil
}

// SearchPassages implements Driver.
func (c *CircuitBreakerDriver) SearchPassages(ctx context.Context, query, tenantID string, limit int) ([]PassageHit, error) {
	hits, err := c.cb.Execute(func() (interface{}, error) {
		return c.driver.SearchPassages(ctx, query, tenantID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("graph store call rejected: %w", err)
	}
	return hits.([]PassageHit), nil
}

// Close implements Driver.
func (c *CircuitBreakerDriver) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

var _ Driver = (*CircuitBreakerDriver)(nil)
