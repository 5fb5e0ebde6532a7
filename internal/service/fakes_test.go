package service

import (
	"context"
	"fmt"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

// In-memory port implementations shared by the service tests.

type fakeUserStore struct {
	users map[string]*domain.User
}

func newFakeUserStore(ids ...string) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*domain.User)}
	for _, id := range ids {
		s.users[id] = &domain.User{ID: id, Email: id + "@example.com", Name: id}
	}
	return s
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, port.ErrUserNotFound
	}
	return u, nil
}

type fakeInteractionStore struct {
	embeddings    []domain.RatedEmbedding
	embeddingsErr error
	watched       []domain.WatchedItem
	watchedErr    error
	excluded      []string
	excludedErr   error
}

func (s *fakeInteractionStore) ListWatchedEmbeddings(context.Context, string) ([]domain.RatedEmbedding, error) {
	return s.embeddings, s.embeddingsErr
}

func (s *fakeInteractionStore) ListWatchedItems(_ context.Context, _ string, limit int) ([]domain.WatchedItem, error) {
	if s.watchedErr != nil {
		return nil, s.watchedErr
	}
	if len(s.watched) > limit {
		return s.watched[:limit], nil
	}
	return s.watched, nil
}

func (s *fakeInteractionStore) ListExcludedContentIDs(context.Context, string) ([]string, error) {
	return s.excluded, s.excludedErr
}

type fakeTasteStore struct {
	vectors  map[string][]float32
	setCalls int
}

func newFakeTasteStore() *fakeTasteStore {
	return &fakeTasteStore{vectors: make(map[string][]float32)}
}

func (s *fakeTasteStore) GetTasteVector(_ context.Context, userID string) ([]float32, error) {
	return s.vectors[userID], nil
}

func (s *fakeTasteStore) SetTasteVector(_ context.Context, userID string, vector []float32) error {
	s.setCalls++
	if vector == nil {
		delete(s.vectors, userID)
		return nil
	}
	s.vectors[userID] = vector
	return nil
}

type fakeSearcher struct {
	pool        []domain.RecommendationCandidate
	lastExclude []string
	lastLimit   int
}

func (s *fakeSearcher) NearestNeighbours(_ context.Context, _ []float32, exclude []string, limit int) ([]domain.RecommendationCandidate, error) {
	s.lastExclude = exclude
	s.lastLimit = limit
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var out []domain.RecommendationCandidate
	for _, c := range s.pool {
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeAI struct {
	chatResponse string
	chatErr      error
	chatCalls    int
}

func (a *fakeAI) ModelName() string { return "fake-model" }

func (a *fakeAI) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (a *fakeAI) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (a *fakeAI) Chat(context.Context, string, string, []string) (string, error) {
	a.chatCalls++
	return a.chatResponse, a.chatErr
}

func (a *fakeAI) ChatStream(context.Context, string, string, []string) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- a.chatResponse
	close(ch)
	return ch, a.chatErr
}

type fakeMetadata struct {
	movies map[string][]domain.ContentItem
	tv     map[string][]domain.ContentItem
}

func (m *fakeMetadata) SearchMovies(_ context.Context, query string, limit int) ([]domain.ContentItem, error) {
	return capHits(m.movies[query], limit), nil
}

func (m *fakeMetadata) SearchTV(_ context.Context, query string, limit int) ([]domain.ContentItem, error) {
	return capHits(m.tv[query], limit), nil
}

func (m *fakeMetadata) Lookup(_ context.Context, externalID string) (*domain.ContentItem, error) {
	for _, hits := range m.movies {
		for _, h := range hits {
			if h.ExternalID == externalID {
				return &h, nil
			}
		}
	}
	for _, hits := range m.tv {
		for _, h := range hits {
			if h.ExternalID == externalID {
				return &h, nil
			}
		}
	}
	return nil, port.ErrContentNotFound
}

func capHits(hits []domain.ContentItem, limit int) []domain.ContentItem {
	if len(hits) > limit {
		return hits[:limit]
	}
	return hits
}

// fakeResolver registers hits under deterministic internal ids so tests can
// predict which resolved items land in the exclusion set.
type fakeResolver struct {
	resolveCalls int
	failing      map[string]bool
}

func (r *fakeResolver) ResolveExternal(_ context.Context, hit domain.ContentItem) (*domain.ContentItem, error) {
	r.resolveCalls++
	if r.failing[hit.ExternalID] {
		return nil, fmt.Errorf("lookup %s: upstream unavailable", hit.ExternalID)
	}
	item := hit
	item.ID = "id-" + hit.ExternalID
	return &item, nil
}
