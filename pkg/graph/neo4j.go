package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// Full-text index names expected by the driver.
const (
	entityIndexName  = "entity_names"
	passageIndexName = "passage_content"
)

// Neo4jDriver implements the Driver interface for Neo4j databases.
//
// Schema assumptions: (:Entity {uuid, name, entity_type, tenant_id}),
// (:Passage {uuid, content, tenant_id}), (:Passage)-[:MENTIONS]->(:Entity),
// (:Entity)-[:CO_OCCURS]-(:Entity).
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jDriver{client: client, database: database}, nil
}

// SearchEntities full-text matches the query against entity names/types.
func (n *Neo4jDriver) SearchEntities(ctx context.Context, query, tenantID string, limit int) ([]EntityHit, error) {
	cypher := fmt.Sprintf(`
		CALL db.index.fulltext.queryNodes("%s", $query) YIELD node, score
		WHERE node:Entity AND node.tenant_id = $tenant_id
		RETURN node.uuid AS uuid, node.name AS name, node.entity_type AS entity_type, score
		LIMIT $limit`, entityIndexName)

	records, err := n.read(ctx, cypher, map[string]any{
		"query":     query,
		"tenant_id": tenantID,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("entity fulltext search failed: %w", err)
	}

	hits := make([]EntityHit, 0, len(records))
	for _, record := range records {
		hits = append(hits, EntityHit{
			UUID:       recordString(record, "uuid"),
			Name:       recordString(record, "name"),
			EntityType: recordString(record, "entity_type"),
			Score:      recordFloat(record, "score"),
		})
	}
	return hits, nil
}

// Neighborhood walks CO_OCCURS edges outward up to depth hops.
func (n *Neo4jDriver) Neighborhood(ctx context.Context, entityUUIDs []string, tenantID string, depth int) ([]EntityHit, error) {
	if len(entityUUIDs) == 0 || depth < 1 {
		return []EntityHit{}, nil
	}

	// Variable-length bounds cannot be parameterized in Cypher; depth is a
	// bounded int supplied by the adapter, never user input.
	cypher := fmt.Sprintf(`
		UNWIND $uuids AS uuid
		MATCH (origin:Entity {uuid: uuid, tenant_id: $tenant_id})-[:CO_OCCURS*1..%d]-(neighbor:Entity)
		WHERE neighbor.tenant_id = $tenant_id AND NOT neighbor.uuid IN $uuids
		RETURN DISTINCT neighbor.uuid AS uuid, neighbor.name AS name, neighbor.entity_type AS entity_type`, depth)

	records, err := n.read(ctx, cypher, map[string]any{
		"uuids":     entityUUIDs,
		"tenant_id": tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("neighborhood traversal failed: %w", err)
	}

	hits := make([]EntityHit, 0, len(records))
	for _, record := range records {
		hits = append(hits, EntityHit{
			UUID:       recordString(record, "uuid"),
			Name:       recordString(record, "name"),
			EntityType: recordString(record, "entity_type"),
		})
	}
	return hits, nil
}

// PassagesByEntities returns passages mentioning any of the given entities.
func (n *Neo4jDriver) PassagesByEntities(ctx context.Context, entityUUIDs []string, tenantID string, limit int) ([]PassageHit, error) {
	if len(entityUUIDs) == 0 {
		return []PassageHit{}, nil
	}

	cypher := `
		UNWIND $uuids AS uuid
		MATCH (e:Entity {uuid: uuid, tenant_id: $tenant_id})<-[:MENTIONS]-(p:Passage {tenant_id: $tenant_id})
		WITH p, collect(DISTINCT e) AS entities
		RETURN p.uuid AS uuid, p.content AS content,
		       [e IN entities | {uuid: e.uuid, name: e.name, entity_type: e.entity_type}] AS entities
		LIMIT $limit`

	records, err := n.read(ctx, cypher, map[string]any{
		"uuids":     entityUUIDs,
		"tenant_id": tenantID,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("passages-by-entities lookup failed: %w", err)
	}

	hits := make([]PassageHit, 0, len(records))
	for _, record := range records {
		hit := PassageHit{
			UUID:    recordString(record, "uuid"),
			Content: recordString(record, "content"),
		}
		if raw, found := record.Get("entities"); found {
			if list, ok := raw.([]any); ok {
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						hit.Entities = append(hit.Entities, EntityHit{
							UUID:       stringValue(m["uuid"]),
							Name:       stringValue(m["name"]),
							EntityType: stringValue(m["entity_type"]),
						})
					}
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// CooccurringPairs returns passages where two of the given entities appear
// together and share a CO_OCCURS edge.
func (n *Neo4jDriver) CooccurringPairs(ctx context.Context, entityUUIDs []string, tenantID string, limit int) ([]RelationHit, error) {
	if len(entityUUIDs) < 2 {
		return []RelationHit{}, nil
	}

	cypher := `
		MATCH (a:Entity {tenant_id: $tenant_id})-[:CO_OCCURS]-(b:Entity {tenant_id: $tenant_id})
		WHERE a.uuid IN $uuids AND b.uuid IN $uuids AND a.uuid < b.uuid
		MATCH (p:Passage {tenant_id: $tenant_id})-[:MENTIONS]->(a)
		MATCH (p)-[:MENTIONS]->(b)
		RETURN p.uuid AS passage_uuid, p.content AS content,
		       a.uuid AS source_uuid, b.uuid AS target_uuid,
		       a.name AS source_name, b.name AS target_name
		LIMIT $limit`

	records, err := n.read(ctx, cypher, map[string]any{
		"uuids":     entityUUIDs,
		"tenant_id": tenantID,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("co-occurring pair lookup failed: %w", err)
	}

	hits := make([]RelationHit, 0, len(records))
	for _, record := range records {
		hits = append(hits, RelationHit{
			PassageUUID: recordString(record, "passage_uuid"),
			Content:     recordString(record, "content"),
			SourceUUID:  recordString(record, "source_uuid"),
			TargetUUID:  recordString(record, "target_uuid"),
			SourceName:  recordString(record, "source_name"),
			TargetName:  recordString(record, "target_name"),
		})
	}
	return hits, nil
}

// SearchPassages full-text matches the query directly against passage text.
func (n *Neo4jDriver) SearchPassages(ctx context.Context, query, tenantID string, limit int) ([]PassageHit, error) {
	cypher := fmt.Sprintf(`
		CALL db.index.fulltext.queryNodes("%s", $query) YIELD node, score
		WHERE node:Passage AND node.tenant_id = $tenant_id
		RETURN node.uuid AS uuid, node.content AS content, score
		LIMIT $limit`, passageIndexName)

	records, err := n.read(ctx, cypher, map[string]any{
		"query":     query,
		"tenant_id": tenantID,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("passage fulltext search failed: %w", err)
	}

	hits := make([]PassageHit, 0, len(records))
	for _, record := range records {
		hits = append(hits, PassageHit{
			UUID:    recordString(record, "uuid"),
			Content: recordString(record, "content"),
			Score:   recordFloat(record, "score"),
		})
	}
	return hits, nil
}

// CreateIndices creates the full-text and property indexes the driver
// queries against. Safe to call repeatedly.
func (n *Neo4jDriver) CreateIndices(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (e:Entity) ON EACH [e.name, e.entity_type]`, entityIndexName),
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (p:Passage) ON EACH [p.content]`, passageIndexName),
		`CREATE INDEX entity_tenant IF NOT EXISTS FOR (e:Entity) ON (e.tenant_id)`,
		`CREATE INDEX passage_tenant IF NOT EXISTS FOR (p:Passage) ON (p.tenant_id)`,
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Close releases all resources held by the driver.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// read runs a read transaction and collects all records.
func (n *Neo4jDriver) read(ctx context.Context, cypher string, params map[string]any) ([]*db.Record, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	return result.([]*db.Record), nil
}

func recordString(record *db.Record, key string) string {
	v, found := record.Get(key)
	if !found {
		return ""
	}
	return stringValue(v)
}

func recordFloat(record *db.Record, key string) float64 {
	v, found := record.Get(key)
	if !found {
		return 0
	}
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	}
	return 0
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
