package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore implements Store on top of Postgres with the pgvector
// extension. The passages table is expected to carry content, a metadata
// jsonb column, a tenant_id column, and an embedding vector column with a
// cosine index.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore opens a connection pool against dsn. The table name is
// configuration, not user input; it must come from a trusted source.
func NewPostgresStore(dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if table == "" {
		table = "passages"
	}
	return &PostgresStore{db: db, table: table}, nil
}

// Search returns up to k passages most similar to the query embedding,
// scoped to tenantID, ordered by cosine distance.
func (s *PostgresStore) Search(ctx context.Context, embedding []float32, tenantID string, k int) ([]Row, error) {
	query := fmt.Sprintf(`
		SELECT content, metadata, 1 - (embedding <=> $1) AS similarity, vector_dims(embedding)
		FROM %s
		WHERE tenant_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3`, s.table)

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), tenantID, k)
	if err != nil {
		return nil, fmt.Errorf("vector search query failed: %w", err)
	}
	defer rows.Close()

	var results []Row
	for rows.Next() {
		var (
			row      Row
			metadata []byte
		)
		if err := rows.Scan(&row.Content, &metadata, &row.Score, &row.Dimensions); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &row.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode passage metadata: %w", err)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search rows error: %w", err)
	}

	return results, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
