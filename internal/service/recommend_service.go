package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

// DefaultRecommendationLimit is the candidate count returned when callers pass
// no explicit limit.
const DefaultRecommendationLimit = 20

// Diversity penalty parameters. The near-duplicate penalty compounds once per
// matching recent pick.
const (
	sameTypeLightPenalty   = 0.9
	sameTypeHeavyPenalty   = 0.5
	nearDuplicatePenalty   = 0.7
	nearDuplicateThreshold = 0.9
	nearDuplicateWindow    = 3
)

const explainTimeout = 30 * time.Second

// RecommendationService retrieves similarity-ranked candidates for a user's
// taste vector, re-ranks them under the diversity policy, and generates
// per-candidate explanations.
type RecommendationService struct {
	users        port.UserStore
	interactions port.InteractionStore
	tastes       port.TasteVectorStore
	search       port.VectorSearcher
	ai           port.AIProvider
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(users port.UserStore, interactions port.InteractionStore, tastes port.TasteVectorStore, search port.VectorSearcher, ai port.AIProvider) *RecommendationService {
	return &RecommendationService{users: users, interactions: interactions, tastes: tastes, search: search, ai: ai}
}

// RetrieveCandidates returns up to limit recommendation candidates for the
// user, ordered by the diversity pass. A user without a taste vector gets an
// empty list: "no opinion yet" is a normal state, not an error.
func (s *RecommendationService) RetrieveCandidates(ctx context.Context, userID string, limit int) ([]domain.RecommendationCandidate, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	taste, err := s.tastes.GetTasteVector(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get taste vector: %w", err)
	}
	if taste == nil {
		return nil, nil
	}

	exclude, err := s.interactions.ListExcludedContentIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list excluded content: %w", err)
	}

	// Over-fetch 2x so the diversity pass has alternatives to promote when it
	// demotes over-represented picks.
	pool, err := s.search.NearestNeighbours(ctx, taste, exclude, limit*2)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}

	for i := range pool {
		pool[i].Similarity = 1 - pool[i].Distance
	}

	slog.Info("candidates retrieved", "user_id", userID, "pool", len(pool), "limit", limit)
	return Diversify(pool, limit), nil
}

// Diversify re-orders a similarity-sorted candidate pool under the diversity
// policy and truncates it to limit. Pure function: the input slice is never
// mutated, and returned candidates keep their original similarity values (the
// penalties only influence selection order).
//
// The selection is a greedy single pass. On each step every remaining
// candidate's similarity is adjusted: same type as the previous pick costs
// x0.9 (or x0.5 from the third consecutive repeat), and each of the last
// three picks sharing the candidate's type with similarity above 0.9 costs a
// compounding x0.7. Ties go to the earliest candidate in pool order.
func Diversify(pool []domain.RecommendationCandidate, limit int) []domain.RecommendationCandidate {
	if len(pool) <= limit {
		return pool
	}

	remaining := make([]int, len(pool))
	for i := range remaining {
		remaining[i] = i
	}

	selected := make([]domain.RecommendationCandidate, 0, limit)
	var lastType domain.ContentType
	consecutiveSameType := 0

	for len(selected) < limit && len(remaining) > 0 {
		bestPos := 0
		bestScore := math.Inf(-1)

		for pos, idx := range remaining {
			cand := pool[idx]
			score := cand.Similarity

			if lastType != "" && cand.Type == lastType {
				if consecutiveSameType >= 2 {
					score *= sameTypeHeavyPenalty
				} else {
					score *= sameTypeLightPenalty
				}
			}

			windowStart := len(selected) - nearDuplicateWindow
			if windowStart < 0 {
				windowStart = 0
			}
			for _, prev := range selected[windowStart:] {
				if prev.Type == cand.Type && prev.Similarity > nearDuplicateThreshold {
					score *= nearDuplicatePenalty
				}
			}

			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}

		pick := pool[remaining[bestPos]]
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)

		if lastType != "" && pick.Type == lastType {
			consecutiveSameType++
		} else {
			consecutiveSameType = 1
		}
		lastType = pick.Type

		selected = append(selected, pick)
	}

	return selected
}

// Explain produces a short natural-language justification for recommending
// the candidate, grounded in the user's recent watch history. Any failure of
// the external call degrades to a deterministic templated sentence; the
// caller never sees an error. Single attempt, no retry.
func (s *RecommendationService) Explain(ctx context.Context, userID string, candidate *domain.RecommendationCandidate) string {
	return s.explain(ctx, userID, candidate, "")
}

// ExplainForMood is Explain with the originating mood request cited in the
// prompt, for mood-based results.
func (s *RecommendationService) ExplainForMood(ctx context.Context, userID string, candidate *domain.RecommendationCandidate, mood string) string {
	return s.explain(ctx, userID, candidate, mood)
}

func (s *RecommendationService) explain(ctx context.Context, userID string, candidate *domain.RecommendationCandidate, mood string) string {
	fallback := fmt.Sprintf("Recommended because %q is close to the titles you have watched recently.", candidate.Title)

	recent, err := s.interactions.ListWatchedItems(ctx, userID, 10)
	if err != nil {
		slog.Warn("explain: watch history unavailable", "user_id", userID, "error", err)
		return fallback
	}

	history := make([]string, 0, len(recent))
	for _, w := range recent {
		line := w.Title
		if w.Year > 0 {
			line += fmt.Sprintf(" (%d)", w.Year)
		}
		if w.Rating != nil {
			line += fmt.Sprintf(" — rated %.1f/10", *w.Rating)
		}
		history = append(history, line)
	}

	systemPrompt := `You are a film and TV recommendation assistant.
Explain in one or two sentences why the viewer would enjoy the recommended title, based on their watch history.
Speak directly to the viewer. No spoilers, no markdown, no preamble.`

	userPrompt := fmt.Sprintf("Recommended title: %s", candidate.Title)
	if y := candidate.Year(); y > 0 {
		userPrompt += fmt.Sprintf(" (%d)", y)
	}
	if candidate.Overview != "" {
		userPrompt += "\nOverview: " + candidate.Overview
	}
	if mood != "" {
		userPrompt += fmt.Sprintf("\nThe viewer asked for something matching this mood: %q", mood)
	}

	chatCtx, cancel := context.WithTimeout(ctx, explainTimeout)
	defer cancel()

	response, err := s.ai.Chat(chatCtx, systemPrompt, userPrompt, history)
	if err != nil || strings.TrimSpace(response) == "" {
		slog.Warn("explain: chat failed, using fallback", "user_id", userID, "error", err)
		return fallback
	}
	return strings.TrimSpace(response)
}
