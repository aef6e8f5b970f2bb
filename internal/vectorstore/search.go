//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/finsight-ai/summary-server/internal/config"
)

// DefaultPartition is the partition column value marking chunks that
// belong to no named partition.
const DefaultPartition = ""

// parseTableIdentifier splits a table name into schema and table parts.
// Supports formats: "table", "schema.table"
func parseTableIdentifier(table string) pgx.Identifier {
	parts := strings.Split(table, ".")
	return pgx.Identifier(parts)
}

// formatVector converts a float32 slice to pgvector string format [x,y,z,...].
func formatVector(embedding []float32) string {
	strs := make([]string, len(embedding))
	for i, v := range embedding {
		strs[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(strs, ",") + "]"
}

// Chunk represents a stored document chunk returned from a search.
type Chunk struct {
	ID      string  `json:"id,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Store performs searches against a single configured chunk table.
type Store struct {
	pool   *Pool
	source config.ChunkSource
}

// NewStore creates a store over the given pool and chunk table.
func NewStore(pool *Pool, source config.ChunkSource) *Store {
	return &Store{pool: pool, source: source}
}

// Search performs a vector similarity search using pgvector, scoped to a
// partition and constrained by the metadata filter. Results are ordered
// by similarity (highest first).
func (s *Store) Search(
	ctx context.Context,
	embedding []float32,
	partition string,
	filter Filter,
	topK int,
) ([]Chunk, error) {
	metaClause, metaArgs := buildMetadataClause(s.source.MetadataColumn, filter, 4)

	where := fmt.Sprintf("WHERE %s = $2",
		pgx.Identifier{s.source.PartitionColumn}.Sanitize())
	if metaClause != "" {
		where += " AND " + metaClause
	}

	// The <=> operator returns cosine distance, so we subtract from 1
	// for similarity
	query := fmt.Sprintf(`
		SELECT
			ctid::text AS id,
			%s AS content,
			1 - (%s <=> $1::vector) AS score
		FROM %s
		%s
		ORDER BY %s <=> $1::vector
		LIMIT $3`,
		pgx.Identifier{s.source.ContentColumn}.Sanitize(),
		pgx.Identifier{s.source.EmbeddingColumn}.Sanitize(),
		parseTableIdentifier(s.source.Table).Sanitize(),
		where,
		pgx.Identifier{s.source.EmbeddingColumn}.Sanitize(),
	)

	args := append([]interface{}{formatVector(embedding), partition, topK}, metaArgs...)
	rows, err := s.pool.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Content, &c.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return chunks, nil
}

// FetchChunks fetches all chunk contents in a partition matching the
// metadata filter, keyed by ctid. Used to build the lexical index for
// hybrid search.
func (s *Store) FetchChunks(
	ctx context.Context,
	partition string,
	filter Filter,
) (map[string]string, error) {
	metaClause, metaArgs := buildMetadataClause(s.source.MetadataColumn, filter, 2)

	contentColumn := pgx.Identifier{s.source.ContentColumn}.Sanitize()
	where := fmt.Sprintf("WHERE %s = $1 AND %s IS NOT NULL",
		pgx.Identifier{s.source.PartitionColumn}.Sanitize(),
		contentColumn)
	if metaClause != "" {
		where += " AND " + metaClause
	}

	query := fmt.Sprintf(`
		SELECT
			ctid::text AS id,
			%s AS content
		FROM %s
		%s`,
		contentColumn,
		parseTableIdentifier(s.source.Table).Sanitize(),
		where,
	)

	args := append([]interface{}{partition}, metaArgs...)
	rows, err := s.pool.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]string)
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs[id] = content
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}
