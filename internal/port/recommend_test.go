package port

import (
	"context"
	"errors"
	"testing"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
)

type stubSource struct {
	name string
	hits []domain.RecommendationCandidate
}

func (s *stubSource) Name() string        { return s.name }
func (s *stubSource) Description() string { return s.name + " source" }

func (s *stubSource) Recommend(context.Context, RecommendationRequest) ([]domain.RecommendationCandidate, error) {
	return s.hits, nil
}

func TestSourceEngineRun(t *testing.T) {
	profile := &stubSource{
		name: "profile",
		hits: []domain.RecommendationCandidate{{ContentItem: domain.ContentItem{ID: "c1"}}},
	}
	engine := NewSourceEngine(profile, &stubSource{name: "mood"})

	got, err := engine.Run(context.Background(), "profile", RecommendationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("got %v, want the profile source's candidates", got)
	}
}

func TestSourceEngineUnknownSource(t *testing.T) {
	engine := NewSourceEngine(&stubSource{name: "profile"})

	_, err := engine.Run(context.Background(), "astrology", RecommendationRequest{UserID: "u1"})
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("got error %v, want ErrSourceNotFound", err)
	}
}

func TestSourceEngineAvailableSources(t *testing.T) {
	engine := NewSourceEngine(&stubSource{name: "profile"}, &stubSource{name: "mood"})

	names := engine.AvailableSources()
	if len(names) != 2 {
		t.Fatalf("got %d sources, want 2", len(names))
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["profile"] || !seen["mood"] {
		t.Errorf("sources = %v, want profile and mood", names)
	}
}
