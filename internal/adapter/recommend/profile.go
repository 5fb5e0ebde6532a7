package recommend

import (
	"context"
	"fmt"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/service"
)

// ProfileSource produces candidates from the user's taste vector via
// nearest-neighbour retrieval and the diversity pass.
type ProfileSource struct {
	recommendations *service.RecommendationService
}

// NewProfileSource creates the taste-profile recommendation source.
func NewProfileSource(recommendations *service.RecommendationService) *ProfileSource {
	return &ProfileSource{recommendations: recommendations}
}

func (s *ProfileSource) Name() string        { return "profile" }
func (s *ProfileSource) Description() string { return "Similarity to your rated watch history" }

func (s *ProfileSource) Recommend(ctx context.Context, req port.RecommendationRequest) ([]domain.RecommendationCandidate, error) {
	candidates, err := s.recommendations.RetrieveCandidates(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("profile recommendations: %w", err)
	}

	if req.Explain {
		for i := range candidates {
			candidates[i].Explanation = s.recommendations.Explain(ctx, req.UserID, &candidates[i])
		}
	}
	return candidates, nil
}
