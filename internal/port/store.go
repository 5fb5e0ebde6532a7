package port

import (
	"context"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
)

// UserStore provides read access to user records.
type UserStore interface {
	// GetUserByID retrieves a user by ID, returning ErrUserNotFound when absent.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// InteractionStore provides the interaction-history reads and taste-vector
// writes the recommendation core depends on.
type InteractionStore interface {
	// ListWatchedEmbeddings returns (embedding, rating) pairs for content the
	// user has marked watched and which has a stored embedding.
	ListWatchedEmbeddings(ctx context.Context, userID string) ([]domain.RatedEmbedding, error)

	// ListWatchedItems returns the user's watch history, most recent first.
	ListWatchedItems(ctx context.Context, userID string, limit int) ([]domain.WatchedItem, error)

	// ListExcludedContentIDs returns the union of the user's watched and
	// dismissed content ids.
	ListExcludedContentIDs(ctx context.Context, userID string) ([]string, error)
}

// TasteVectorStore persists per-user taste vectors.
type TasteVectorStore interface {
	// GetTasteVector returns the user's stored taste vector, or nil when the
	// user has no opinion yet.
	GetTasteVector(ctx context.Context, userID string) ([]float32, error)

	// SetTasteVector replaces the user's taste vector atomically. A nil vector
	// clears any previously stored value.
	SetTasteVector(ctx context.Context, userID string, vector []float32) error
}

// VectorSearcher performs nearest-neighbour retrieval over content embeddings.
type VectorSearcher interface {
	// NearestNeighbours returns up to limit content items ordered by ascending
	// cosine distance to the query vector, skipping un-embedded items and any
	// id in exclude.
	NearestNeighbours(ctx context.Context, query []float32, exclude []string, limit int) ([]domain.RecommendationCandidate, error)
}

// ContentStore provides catalog reads used when resolving external search hits.
type ContentStore interface {
	// GetContentByID retrieves a content item, returning ErrContentNotFound
	// when absent.
	GetContentByID(ctx context.Context, id string) (*domain.ContentItem, error)

	// GetContentByExternalID retrieves a content item by its metadata-provider
	// id, returning ErrContentNotFound when absent.
	GetContentByExternalID(ctx context.Context, externalID string) (*domain.ContentItem, error)
}

// ContentResolver turns an external metadata hit into a catalog item,
// registering it (and requesting an embedding) when it is not in the catalog
// yet.
type ContentResolver interface {
	ResolveExternal(ctx context.Context, hit domain.ContentItem) (*domain.ContentItem, error)
}
