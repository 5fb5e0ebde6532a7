package port

import (
	"context"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
)

// SourceStrategy defines a pluggable recommendation source (Strategy Pattern).
// Each source produces candidates a different way (taste profile, mood search).
type SourceStrategy interface {
	// Name returns the unique name of this source (e.g. "profile", "mood").
	Name() string

	// Description returns a human-readable description of the source.
	Description() string

	// Recommend produces an ordered candidate list for the request.
	Recommend(ctx context.Context, req RecommendationRequest) ([]domain.RecommendationCandidate, error)
}

// RecommendationRequest contains everything a source needs to produce candidates.
type RecommendationRequest struct {
	UserID  string `json:"user_id"`
	Limit   int    `json:"limit"`
	Mood    string `json:"mood,omitempty"` // consumed by mood-based sources only
	Explain bool   `json:"explain,omitempty"`
}

// SourceEngine orchestrates multiple recommendation sources.
type SourceEngine struct {
	sources map[string]SourceStrategy
}

// NewSourceEngine creates a new engine with the given sources.
func NewSourceEngine(sources ...SourceStrategy) *SourceEngine {
	m := make(map[string]SourceStrategy, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &SourceEngine{sources: m}
}

// Run executes the named source.
func (e *SourceEngine) Run(ctx context.Context, sourceName string, req RecommendationRequest) ([]domain.RecommendationCandidate, error) {
	s, ok := e.sources[sourceName]
	if !ok {
		return nil, ErrSourceNotFound
	}
	return s.Recommend(ctx, req)
}

// AvailableSources returns the names of all registered sources.
func (e *SourceEngine) AvailableSources() []string {
	names := make([]string, 0, len(e.sources))
	for name := range e.sources {
		names = append(names, name)
	}
	return names
}
