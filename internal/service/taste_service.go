package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

// Rating weight parameters for the taste-vector computation. An unrated item
// counts as a neutral 5.0; the floor keeps even a 0-rated item contributing a
// small amount instead of being excluded entirely.
const (
	neutralRating  = 5.0
	minTasteWeight = 0.1
)

// TasteService computes and persists per-user taste vectors as a
// rating-weighted average of watched items' embeddings.
type TasteService struct {
	users        port.UserStore
	interactions port.InteractionStore
	tastes       port.TasteVectorStore
}

// NewTasteService creates a new taste-profile service.
func NewTasteService(users port.UserStore, interactions port.InteractionStore, tastes port.TasteVectorStore) *TasteService {
	return &TasteService{users: users, interactions: interactions, tastes: tastes}
}

// ComputeTasteVector recomputes the user's taste vector from scratch and
// persists it, replacing any prior value. A user with no watched+embedded
// content gets a nil vector, and any stored vector is cleared rather than
// left stale. Always a full recompute: ratings can be edited or removed,
// which an incremental running average cannot support.
func (s *TasteService) ComputeTasteVector(ctx context.Context, userID string) ([]float32, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	pairs, err := s.interactions.ListWatchedEmbeddings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watched embeddings: %w", err)
	}

	if len(pairs) == 0 {
		if err := s.tastes.SetTasteVector(ctx, userID, nil); err != nil {
			return nil, fmt.Errorf("clear taste vector: %w", err)
		}
		slog.Info("taste vector cleared", "user_id", userID)
		return nil, nil
	}

	vector, err := weightedAverage(pairs)
	if err != nil {
		return nil, err
	}

	if err := s.tastes.SetTasteVector(ctx, userID, vector); err != nil {
		return nil, fmt.Errorf("set taste vector: %w", err)
	}

	slog.Info("taste vector recomputed", "user_id", userID, "watched", len(pairs), "dimensions", len(vector))
	return vector, nil
}

// weightedAverage computes the convex combination of the embeddings weighted
// by max(0.1, rating/10), normalized to sum 1 over the whole watched set.
func weightedAverage(pairs []domain.RatedEmbedding) ([]float32, error) {
	dim := len(pairs[0].Vector)

	weights := make([]float64, len(pairs))
	totalWeight := 0.0
	for i, p := range pairs {
		if len(p.Vector) != dim {
			return nil, &port.DimensionMismatchError{Want: dim, Got: len(p.Vector)}
		}
		rating := neutralRating
		if p.Rating != nil {
			rating = *p.Rating
		}
		w := rating / 10
		if w < minTasteWeight {
			w = minTasteWeight
		}
		weights[i] = w
		totalWeight += w
	}

	// Accumulate in float64 to keep the normalized sum stable.
	acc := make([]float64, dim)
	for i, p := range pairs {
		w := weights[i] / totalWeight
		for d, v := range p.Vector {
			acc[d] += w * float64(v)
		}
	}

	vector := make([]float32, dim)
	for d, v := range acc {
		vector[d] = float32(v)
	}
	return vector, nil
}
