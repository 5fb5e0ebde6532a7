package recommend

import (
	"context"
	"fmt"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/service"
)

// MoodSource produces candidates from a free-text mood request via LLM query
// translation and external metadata search.
type MoodSource struct {
	moods           *service.MoodService
	recommendations *service.RecommendationService
}

// NewMoodSource creates the mood-search recommendation source.
func NewMoodSource(moods *service.MoodService, recommendations *service.RecommendationService) *MoodSource {
	return &MoodSource{moods: moods, recommendations: recommendations}
}

func (s *MoodSource) Name() string        { return "mood" }
func (s *MoodSource) Description() string { return "Titles matching a described mood" }

func (s *MoodSource) Recommend(ctx context.Context, req port.RecommendationRequest) ([]domain.RecommendationCandidate, error) {
	candidates, err := s.moods.MoodToCandidates(ctx, req.UserID, req.Mood, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("mood recommendations: %w", err)
	}

	if req.Explain {
		for i := range candidates {
			candidates[i].Explanation = s.recommendations.ExplainForMood(ctx, req.UserID, &candidates[i], req.Mood)
		}
	}
	return candidates, nil
}
