package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/lib/pq"
)

// VectorStore handles pgvector-specific operations for content embeddings and
// taste vectors.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// Dimension returns the configured embedding dimension.
func (v *VectorStore) Dimension() int {
	return v.dimension
}

// StoreContentEmbedding persists a content item's embedding vector and stamps
// embedded_at, making the item eligible for similarity search.
func (v *VectorStore) StoreContentEmbedding(ctx context.Context, contentID string, vector []float32) error {
	if len(vector) != v.dimension {
		return fmt.Errorf("store content embedding: got %d dimensions, store expects %d", len(vector), v.dimension)
	}
	vectorStr := vectorToString(vector)
	query := `UPDATE content_items
	          SET embedding = $1::vector, embedded_at = NOW(), updated_at = NOW()
	          WHERE id = $2`

	_, err := v.store.db.ExecContext(ctx, query, vectorStr, contentID)
	if err != nil {
		return fmt.Errorf("store content embedding: %w", err)
	}
	return nil
}

// NearestNeighbours returns up to limit content items ordered by ascending
// cosine distance to the query vector. Un-embedded items and any id in the
// exclude list are skipped.
func (v *VectorStore) NearestNeighbours(ctx context.Context, query []float32, exclude []string, limit int) ([]domain.RecommendationCandidate, error) {
	vectorStr := vectorToString(query)
	if exclude == nil {
		exclude = []string{}
	}
	sqlQuery := `SELECT c.id, c.external_id, c.type, c.title, c.overview, c.poster_url, c.release_date, c.created_at, c.updated_at,
	                    c.embedding <=> $1::vector AS distance
	             FROM content_items c
	             WHERE c.embedding IS NOT NULL
	               AND c.id <> ALL($2)
	             ORDER BY c.embedding <=> $1::vector
	             LIMIT $3`

	rows, err := v.store.db.QueryContext(ctx, sqlQuery, vectorStr, pq.Array(exclude), limit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}
	defer rows.Close()

	var candidates []domain.RecommendationCandidate
	for rows.Next() {
		var rc domain.RecommendationCandidate
		if err := rows.Scan(
			&rc.ID, &rc.ExternalID, &rc.Type, &rc.Title, &rc.Overview,
			&rc.PosterURL, &rc.ReleaseDate, &rc.CreatedAt, &rc.UpdatedAt,
			&rc.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan neighbour: %w", err)
		}
		rc.Similarity = 1 - rc.Distance
		candidates = append(candidates, rc)
	}
	return candidates, nil
}

// GetTasteVector returns the user's stored taste vector, or nil when the user
// has no opinion yet.
func (v *VectorStore) GetTasteVector(ctx context.Context, userID string) ([]float32, error) {
	query := `SELECT vector::text FROM taste_vectors WHERE user_id = $1 AND vector IS NOT NULL`

	var vectorStr string
	err := v.store.db.QueryRowContext(ctx, query, userID).Scan(&vectorStr)
	if errors.Is(err, sql.ErrNoRows) {
		// No row and NULL vector both mean "no opinion yet".
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get taste vector: %w", err)
	}
	return parseVector(vectorStr)
}

// SetTasteVector replaces the user's taste vector in a single statement.
// A nil vector clears any previously stored value rather than leaving it stale.
func (v *VectorStore) SetTasteVector(ctx context.Context, userID string, vector []float32) error {
	if vector == nil {
		query := `INSERT INTO taste_vectors (user_id, vector) VALUES ($1, NULL)
		          ON CONFLICT (user_id) DO UPDATE SET vector = NULL, updated_at = NOW()`
		if _, err := v.store.db.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("clear taste vector: %w", err)
		}
		return nil
	}

	vectorStr := vectorToString(vector)
	query := `INSERT INTO taste_vectors (user_id, vector) VALUES ($1, $2::vector)
	          ON CONFLICT (user_id) DO UPDATE SET vector = EXCLUDED.vector, updated_at = NOW()`
	if _, err := v.store.db.ExecContext(ctx, query, userID, vectorStr); err != nil {
		return fmt.Errorf("set taste vector: %w", err)
	}
	return nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector converts pgvector string output back into a float32 slice.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
