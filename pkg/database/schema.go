package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
)

// HNSW indexes support at most this many dimensions.
const maxIndexedDimension = 2000

var collectionPattern = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]{0,62}$`)

// EnsureCollection installs pgvector and creates the document table for a
// collection when missing.
func (db *PostgresDB) EnsureCollection(ctx context.Context, name string, dimension int) error {
	stmts, err := collectionSchema(name, dimension)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare collection %s: %w", name, err)
		}
	}
	return nil
}

func collectionSchema(name string, dimension int) ([]string, error) {
	if !collectionPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	table := pgx.Identifier{name}.Sanitize()
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`, table, dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s ((metadata->>'source'))",
			pgx.Identifier{name + "_source_idx"}.Sanitize(), table),
	}

	// Larger vectors fall back to exact search.
	if dimension <= maxIndexedDimension {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			pgx.Identifier{name + "_embedding_idx"}.Sanitize(), table))
	}
	return stmts, nil
}
