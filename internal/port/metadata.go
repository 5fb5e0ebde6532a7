package port

import (
	"context"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
)

// MetadataProvider abstracts the external content-metadata API (TMDB).
// Implementations handle title search and detail lookup.
type MetadataProvider interface {
	// SearchMovies searches movie titles, returning at most limit hits.
	SearchMovies(ctx context.Context, query string, limit int) ([]domain.ContentItem, error)

	// SearchTV searches TV titles, returning at most limit hits.
	SearchTV(ctx context.Context, query string, limit int) ([]domain.ContentItem, error)

	// Lookup fetches full details for an external id (e.g. "movie:603").
	Lookup(ctx context.Context, externalID string) (*domain.ContentItem, error)
}
