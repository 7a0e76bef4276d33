package types

import "errors"

// Validation errors
var (
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrEmptyTenantID     = errors.New("tenant_id cannot be empty")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrInvalidLimit      = errors.New("limit cannot be negative")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Metadata keys shared across the pipeline.
const (
	MetadataTenantID    = "tenant_id"
	MetadataEntities    = "entities"
	MetadataRelations   = "relations"
	MetadataPassageUUID = "passage_uuid"
)

// Context keys for request-scoped values.
type ContextKey string

const (
	ContextKeyTenantID  ContextKey = "tenant_id"
	ContextKeyRequestID ContextKey = "request_id"
)

// Source identifies which retrieval signal produced a candidate.
type Source string

const (
	// SourceVector marks candidates from vector similarity search.
	SourceVector Source = "vector"
	// SourceGraphEntity marks candidates reached through the entity neighborhood.
	SourceGraphEntity Source = "graph_entity"
	// SourceGraphRelation marks candidates anchored on a co-occurrence edge.
	SourceGraphRelation Source = "graph_relation"
	// SourceChunkText marks candidates from direct full-text passage match.
	SourceChunkText Source = "chunk_text"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceVector, SourceGraphEntity, SourceGraphRelation, SourceChunkText:
		return true
	}
	return false
}

// Candidate is one retrieved passage plus its scoring and provenance
// metadata. Candidates are created fresh per query and live only for the
// duration of one fusion call.
type Candidate struct {
	// ID is the stable identity used for deduplication. Adapters may leave
	// it empty; the fusion ranker derives a content-based key in that case.
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Source   Source         `json:"source"`
	// NativeScore is the source-specific similarity or relevance score.
	// Scores from different sources are not comparable to each other.
	NativeScore float64 `json:"native_score"`
	// FinalScore is populated only after fusion.
	FinalScore float64 `json:"final_score"`
}

// TenantID returns the tenant scope recorded in the candidate metadata.
func (c *Candidate) TenantID() string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[MetadataTenantID].(string); ok {
		return v
	}
	return ""
}

// Validate checks that the candidate carries the fields every pipeline
// stage depends on.
func (c *Candidate) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.TenantID() == "" {
		return ErrEmptyTenantID
	}
	return nil
}

// EntityRef is the (name, type) pair recorded on graph-derived candidates.
type EntityRef struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
}

// Entity is a named concept inside the graph store domain.
type Entity struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
	TenantID   string `json:"tenant_id"`
}

// Validate checks if the Entity has all required fields set.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return ErrEmptyContent
	}
	if e.TenantID == "" {
		return ErrEmptyTenantID
	}
	return nil
}

// Relation is a co-occurrence edge between two entities, tenant-scoped.
type Relation struct {
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
	TenantID   string `json:"tenant_id"`
}

// Query is one fusion request: free text, tenant scope, and the number of
// passages the caller wants back.
type Query struct {
	Text     string `json:"text"`
	TenantID string `json:"tenant_id"`
	Limit    int    `json:"limit"`
}

// Validate checks if the Query has all required fields set.
func (q *Query) Validate() error {
	if q.TenantID == "" {
		return ErrEmptyTenantID
	}
	if q.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}
