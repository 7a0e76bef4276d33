package graph

import "context"

// EntityHit is one entity returned by full-text entity search or by the
// co-occurrence neighborhood walk. Score is the full-text match score and
// is zero for entities reached only by traversal.
type EntityHit struct {
	UUID       string
	Name       string
	EntityType string
	Score      float64
}

// PassageHit is one passage returned by the graph store. Entities lists
// the matched or traversed entities mentioned in the passage; Score is the
// full-text match score for direct passage search and zero otherwise.
type PassageHit struct {
	UUID     string
	Content  string
	Score    float64
	Entities []EntityHit
}

// RelationHit is one passage in which two co-occurring entities appear
// together, along with the edge's endpoints.
type RelationHit struct {
	PassageUUID string
	Content     string
	SourceUUID  string
	TargetUUID  string
	SourceName  string
	TargetName  string
}

// Driver is the graph store query interface consumed by the adapter.
// Every operation is tenant-scoped at each traversal step: entities and
// passages not owned by the tenant are excluded, not filtered afterwards.
type Driver interface {
	// SearchEntities full-text matches the query against entity names and
	// types, returning scored hits.
	SearchEntities(ctx context.Context, query, tenantID string, limit int) ([]EntityHit, error)

	// Neighborhood walks co-occurrence edges outward from the given
	// entities up to depth hops and returns the entities reached. The
	// origin entities themselves are not included.
	Neighborhood(ctx context.Context, entityUUIDs []string, tenantID string, depth int) ([]EntityHit, error)

	// PassagesByEntities returns passages mentioning any of the given
	// entities, each annotated with the subset of those entities it
	// mentions.
	PassagesByEntities(ctx context.Context, entityUUIDs []string, tenantID string, limit int) ([]PassageHit, error)

	// CooccurringPairs returns passages in which two of the given entities
	// appear together and are connected by a co-occurrence edge.
	CooccurringPairs(ctx context.Context, entityUUIDs []string, tenantID string, limit int) ([]RelationHit, error)

	// SearchPassages full-text matches the query directly against passage
	// text, independent of entity extraction.
	SearchPassages(ctx context.Context, query, tenantID string, limit int) ([]PassageHit, error)

	// Close releases all resources held by the driver.
	Close(ctx context.Context) error
}
