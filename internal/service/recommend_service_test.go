package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

func candidate(id string, ct domain.ContentType, similarity float64) domain.RecommendationCandidate {
	return domain.RecommendationCandidate{
		ContentItem: domain.ContentItem{ID: id, Title: id, Type: ct},
		Similarity:  similarity,
		Distance:    1 - similarity,
	}
}

func TestDiversifyPromotesMinorityType(t *testing.T) {
	// Nine near-identical movies dominate the pool; a single TV show sits far
	// below them. The compounding penalties must pull it into the top five.
	var pool []domain.RecommendationCandidate
	for i := 0; i < 9; i++ {
		pool = append(pool, candidate(fmt.Sprintf("m%d", i+1), domain.ContentTypeMovie, 0.99-float64(i)*0.01))
	}
	pool = append(pool, candidate("tv1", domain.ContentTypeTV, 0.5))

	got := Diversify(pool, 5)
	if len(got) != 5 {
		t.Fatalf("got %d candidates, want 5", len(got))
	}

	wantOrder := []string{"m1", "m2", "tv1", "m3", "m4"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestDiversifySmallPoolPassesThrough(t *testing.T) {
	pool := []domain.RecommendationCandidate{
		candidate("a", domain.ContentTypeMovie, 0.95),
		candidate("b", domain.ContentTypeMovie, 0.94),
		candidate("c", domain.ContentTypeMovie, 0.93),
	}

	got := Diversify(pool, 5)
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	for i, c := range got {
		if c.ID != pool[i].ID {
			t.Errorf("position %d: got %s, want %s (original order must survive)", i, c.ID, pool[i].ID)
		}
	}
}

func TestDiversifyKeepsOriginalScores(t *testing.T) {
	var pool []domain.RecommendationCandidate
	for i := 0; i < 8; i++ {
		pool = append(pool, candidate(fmt.Sprintf("m%d", i), domain.ContentTypeMovie, 0.95))
	}

	got := Diversify(pool, 4)
	for _, c := range got {
		if c.Similarity != 0.95 {
			t.Errorf("%s: similarity %v was mutated by the diversity pass", c.ID, c.Similarity)
		}
	}
}

func TestDiversifyTieBreaksOnPoolOrder(t *testing.T) {
	// Equal scores throughout: selection must preserve pool order because a
	// later candidate never strictly beats an earlier one.
	pool := []domain.RecommendationCandidate{
		candidate("first", domain.ContentTypeMovie, 0.8),
		candidate("second", domain.ContentTypeMovie, 0.8),
		candidate("third", domain.ContentTypeTV, 0.8),
		candidate("fourth", domain.ContentTypeTV, 0.8),
	}

	got := Diversify(pool, 2)
	if got[0].ID != "first" {
		t.Errorf("position 0: got %s, want first", got[0].ID)
	}
	// After picking "first", "third" wins position 1: same score but no
	// same-type penalty.
	if got[1].ID != "third" {
		t.Errorf("position 1: got %s, want third", got[1].ID)
	}
}

func newRecommendService(users port.UserStore, interactions *fakeInteractionStore, tastes *fakeTasteStore, search *fakeSearcher, ai *fakeAI) *RecommendationService {
	return NewRecommendationService(users, interactions, tastes, search, ai)
}

func TestRetrieveCandidatesNoTasteVector(t *testing.T) {
	svc := newRecommendService(newFakeUserStore("u1"), &fakeInteractionStore{}, newFakeTasteStore(), &fakeSearcher{}, &fakeAI{})

	got, err := svc.RetrieveCandidates(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("RetrieveCandidates: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil for a user without a taste vector", got)
	}
}

func TestRetrieveCandidatesUnknownUser(t *testing.T) {
	svc := newRecommendService(newFakeUserStore(), &fakeInteractionStore{}, newFakeTasteStore(), &fakeSearcher{}, &fakeAI{})

	_, err := svc.RetrieveCandidates(context.Background(), "ghost", 10)
	if !errors.Is(err, port.ErrUserNotFound) {
		t.Errorf("got error %v, want ErrUserNotFound", err)
	}
}

func TestRetrieveCandidatesExcludesAndOverFetches(t *testing.T) {
	tastes := newFakeTasteStore()
	tastes.vectors["u1"] = []float32{0.5, 0.5}

	search := &fakeSearcher{
		pool: []domain.RecommendationCandidate{
			candidate("keep1", domain.ContentTypeMovie, 0.9),
			candidate("watched1", domain.ContentTypeMovie, 0.85),
			candidate("keep2", domain.ContentTypeTV, 0.8),
		},
	}
	interactions := &fakeInteractionStore{excluded: []string{"watched1"}}
	svc := newRecommendService(newFakeUserStore("u1"), interactions, tastes, search, &fakeAI{})

	got, err := svc.RetrieveCandidates(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("RetrieveCandidates: %v", err)
	}

	if search.lastLimit != 10 {
		t.Errorf("retrieval limit = %d, want 10 (2x requested)", search.lastLimit)
	}
	if len(search.lastExclude) != 1 || search.lastExclude[0] != "watched1" {
		t.Errorf("exclusion list = %v, want [watched1]", search.lastExclude)
	}
	for _, c := range got {
		if c.ID == "watched1" {
			t.Error("excluded content id surfaced in candidates")
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
}

func TestRetrieveCandidatesSimilarityFromDistance(t *testing.T) {
	tastes := newFakeTasteStore()
	tastes.vectors["u1"] = []float32{1, 0}

	search := &fakeSearcher{
		pool: []domain.RecommendationCandidate{
			{ContentItem: domain.ContentItem{ID: "a", Title: "a", Type: domain.ContentTypeMovie}, Distance: 0.25},
		},
	}
	svc := newRecommendService(newFakeUserStore("u1"), &fakeInteractionStore{}, tastes, search, &fakeAI{})

	got, err := svc.RetrieveCandidates(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("RetrieveCandidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Similarity != 0.75 {
		t.Errorf("similarity = %v, want 0.75 (1 - distance)", got[0].Similarity)
	}
}

func TestExplainUsesChatResponse(t *testing.T) {
	ai := &fakeAI{chatResponse: "  You loved slow-burn thrillers, and this one fits.  "}
	interactions := &fakeInteractionStore{
		watched: []domain.WatchedItem{{ContentID: "w1", Title: "Heat", Year: 1995, Rating: ratingPtr(9.0)}},
	}
	svc := newRecommendService(newFakeUserStore("u1"), interactions, newFakeTasteStore(), &fakeSearcher{}, ai)

	cand := candidate("c1", domain.ContentTypeMovie, 0.9)
	got := svc.Explain(context.Background(), "u1", &cand)
	if got != "You loved slow-burn thrillers, and this one fits." {
		t.Errorf("got %q, want trimmed chat response", got)
	}
}

func TestExplainFallsBack(t *testing.T) {
	tests := []struct {
		name         string
		ai           *fakeAI
		interactions *fakeInteractionStore
	}{
		{
			name:         "chat error",
			ai:           &fakeAI{chatErr: errors.New("ollama unreachable")},
			interactions: &fakeInteractionStore{},
		},
		{
			name:         "blank chat response",
			ai:           &fakeAI{chatResponse: "   "},
			interactions: &fakeInteractionStore{},
		},
		{
			name:         "watch history unavailable",
			ai:           &fakeAI{chatResponse: "never reached"},
			interactions: &fakeInteractionStore{watchedErr: errors.New("db down")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newRecommendService(newFakeUserStore("u1"), tt.interactions, newFakeTasteStore(), &fakeSearcher{}, tt.ai)

			cand := candidate("c1", domain.ContentTypeMovie, 0.9)
			cand.Title = "The Conversation"
			got := svc.Explain(context.Background(), "u1", &cand)
			if !strings.Contains(got, "The Conversation") {
				t.Errorf("fallback %q does not mention the candidate title", got)
			}
		})
	}
}
