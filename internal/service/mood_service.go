package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

// DefaultMoodLimit is the candidate count for mood searches without an
// explicit limit.
const DefaultMoodLimit = 5

// Fan-out caps for the mood search pipeline.
const (
	maxMoodQueries      = 5
	moodHitsPerQuery    = 3
	maxMoodLookups      = 15
	moodTranslateWindow = 30 * time.Second
)

// MoodService translates a free-text mood request into search queries via the
// LLM and resolves the external search hits into recommendation candidates.
type MoodService struct {
	users        port.UserStore
	interactions port.InteractionStore
	metadata     port.MetadataProvider
	resolver     port.ContentResolver
	ai           port.AIProvider
}

// NewMoodService creates a new mood-search service.
func NewMoodService(users port.UserStore, interactions port.InteractionStore, metadata port.MetadataProvider, resolver port.ContentResolver, ai port.AIProvider) *MoodService {
	return &MoodService{users: users, interactions: interactions, metadata: metadata, resolver: resolver, ai: ai}
}

// MoodToCandidates maps a mood request into candidates: translate the mood
// into up to 5 search queries, search movies and TV (top 3 each), de-duplicate
// by external id, cap lookups at 15, drop anything the user has watched or
// dismissed, and truncate to limit. The operation never fails on a malformed
// LLM response; the raw mood text becomes the sole query instead.
func (s *MoodService) MoodToCandidates(ctx context.Context, userID, mood string, limit int) ([]domain.RecommendationCandidate, error) {
	if limit <= 0 {
		limit = DefaultMoodLimit
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	excludedIDs, err := s.interactions.ListExcludedContentIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list excluded content: %w", err)
	}
	excluded := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}

	queries := s.translateMood(ctx, mood)
	slog.Info("mood search", "user_id", userID, "queries", len(queries))

	seen := make(map[string]struct{})
	lookups := 0
	var candidates []domain.RecommendationCandidate

	for _, q := range queries {
		if lookups >= maxMoodLookups {
			break
		}

		movies, err := s.metadata.SearchMovies(ctx, q, moodHitsPerQuery)
		if err != nil {
			slog.Warn("mood search: movie search failed", "query", q, "error", err)
		}
		shows, err := s.metadata.SearchTV(ctx, q, moodHitsPerQuery)
		if err != nil {
			slog.Warn("mood search: tv search failed", "query", q, "error", err)
		}

		for _, hit := range append(movies, shows...) {
			if lookups >= maxMoodLookups {
				break
			}
			if _, dup := seen[hit.ExternalID]; dup {
				continue
			}
			seen[hit.ExternalID] = struct{}{}
			lookups++

			item, err := s.resolver.ResolveExternal(ctx, hit)
			if err != nil {
				slog.Warn("mood search: resolve failed", "external_id", hit.ExternalID, "error", err)
				continue
			}
			if _, skip := excluded[item.ID]; skip {
				continue
			}

			candidates = append(candidates, domain.RecommendationCandidate{ContentItem: *item})
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// translateMood asks the chat model for a small JSON array of search queries.
// Any failure or malformed response falls back to the raw mood text as the
// sole query.
func (s *MoodService) translateMood(ctx context.Context, mood string) []string {
	systemPrompt := `You translate a viewer's mood into title search queries for a movie and TV database.
Respond with nothing but a JSON array of 2 to 5 short query strings.`

	chatCtx, cancel := context.WithTimeout(ctx, moodTranslateWindow)
	defer cancel()

	response, err := s.ai.Chat(chatCtx, systemPrompt, fmt.Sprintf("Mood: %q", mood), nil)
	if err != nil {
		slog.Warn("mood translation failed, using raw mood as query", "error", err)
		return []string{mood}
	}

	queries, err := parseQueryArray(response)
	if err != nil || len(queries) == 0 {
		slog.Warn("mood translation unparseable, using raw mood as query", "error", err)
		return []string{mood}
	}
	if len(queries) > maxMoodQueries {
		queries = queries[:maxMoodQueries]
	}
	return queries
}

// parseQueryArray extracts the first [...] substring in the response and
// parses it as a JSON array of non-empty strings.
func parseQueryArray(response string) ([]string, error) {
	start := strings.Index(response, "[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON array in response")
	}
	end := strings.Index(response[start:], "]")
	if end < 0 {
		return nil, fmt.Errorf("unterminated JSON array in response")
	}

	var raw []string
	if err := json.Unmarshal([]byte(response[start:start+end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse query array: %w", err)
	}

	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}
