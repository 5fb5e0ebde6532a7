package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

const embedTimeout = 2 * time.Minute

// CatalogService manages the content catalog: registering titles from the
// metadata provider and embedding them for similarity search.
type CatalogService struct {
	store    *store.PostgresStore
	vector   *store.VectorStore
	metadata port.MetadataProvider
	ai       port.AIProvider
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(s *store.PostgresStore, v *store.VectorStore, metadata port.MetadataProvider, ai port.AIProvider) *CatalogService {
	return &CatalogService{store: s, vector: v, metadata: metadata, ai: ai}
}

// Register fetches metadata for an external id and adds the title to the
// catalog. The caller is responsible for requesting the embedding; until it
// lands the item is excluded from similarity search.
func (s *CatalogService) Register(ctx context.Context, externalID string) (*domain.ContentItem, error) {
	hit, err := s.metadata.Lookup(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("lookup metadata: %w", err)
	}

	item, err := s.store.CreateContent(ctx, hit)
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return item, nil
}

// ResolveExternal implements port.ContentResolver: returns the catalog item
// for an external hit, registering it first when it is unknown.
func (s *CatalogService) ResolveExternal(ctx context.Context, hit domain.ContentItem) (*domain.ContentItem, error) {
	item, err := s.store.GetContentByExternalID(ctx, hit.ExternalID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, port.ErrContentNotFound) {
		return nil, err
	}

	item, err = s.store.CreateContent(ctx, &hit)
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	go func() {
		embedCtx, cancel := context.WithTimeout(context.Background(), embedTimeout)
		defer cancel()
		if err := s.EmbedContent(embedCtx, item); err != nil {
			slog.Error("background embed failed", "content_id", item.ID, "error", err)
		}
	}()

	return item, nil
}

// EmbedContent computes and stores the embedding for a content item from its
// title and overview.
func (s *CatalogService) EmbedContent(ctx context.Context, item *domain.ContentItem) error {
	slog.Info("embedding content", "content_id", item.ID, "title", item.Title)

	vector, err := s.ai.Embed(ctx, embeddingText(item))
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}

	if err := s.vector.StoreContentEmbedding(ctx, item.ID, vector); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}

	slog.Info("content embedded", "content_id", item.ID, "dimensions", len(vector))
	return nil
}

// Get returns a catalog item by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.ContentItem, error) {
	return s.store.GetContentByID(ctx, id)
}

// Search searches catalog titles.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]domain.ContentItem, error) {
	return s.store.SearchContent(ctx, query, limit)
}

// SearchExternal searches the metadata provider directly (movies and TV),
// for titles not yet in the catalog.
func (s *CatalogService) SearchExternal(ctx context.Context, query string, limit int) ([]domain.ContentItem, error) {
	movies, err := s.metadata.SearchMovies(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	shows, err := s.metadata.SearchTV(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search tv: %w", err)
	}

	results := append(movies, shows...)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// embeddingText builds the text handed to the embedding model.
func embeddingText(item *domain.ContentItem) string {
	parts := []string{item.Title}
	if y := item.Year(); y > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", y))
	}
	parts = append(parts, string(item.Type))
	if item.Overview != "" {
		parts = append(parts, item.Overview)
	}
	return strings.Join(parts, " ")
}
