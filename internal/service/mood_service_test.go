package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

func movieHit(n int) domain.ContentItem {
	return domain.ContentItem{
		ExternalID: fmt.Sprintf("movie:%d", n),
		Type:       domain.ContentTypeMovie,
		Title:      fmt.Sprintf("Movie %d", n),
	}
}

func tvHit(n int) domain.ContentItem {
	return domain.ContentItem{
		ExternalID: fmt.Sprintf("tv:%d", n),
		Type:       domain.ContentTypeTV,
		Title:      fmt.Sprintf("Show %d", n),
	}
}

func TestParseQueryArray(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
		wantErr  bool
	}{
		{
			name:     "bare array",
			response: `["neo-noir", "heist thriller"]`,
			want:     []string{"neo-noir", "heist thriller"},
		},
		{
			name:     "array wrapped in prose",
			response: "Sure! Here are some queries:\n[\"space opera\", \"first contact\"]\nEnjoy!",
			want:     []string{"space opera", "first contact"},
		},
		{
			name:     "blank entries dropped",
			response: `["", "road movie", "  "]`,
			want:     []string{"road movie"},
		},
		{
			name:     "no array",
			response: "I cannot help with that.",
			wantErr:  true,
		},
		{
			name:     "unterminated array",
			response: `["dangling`,
			wantErr:  true,
		},
		{
			name:     "array of objects",
			response: `[{"query": "noir"}]`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQueryArray(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseQueryArray(%q) = %v, want error", tt.response, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQueryArray(%q): %v", tt.response, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("query %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMoodToCandidatesFallsBackToRawMood(t *testing.T) {
	// A failing chat call must not fail the search: the mood text itself
	// becomes the sole query.
	metadata := &fakeMetadata{
		movies: map[string][]domain.ContentItem{
			"something cozy": {movieHit(1)},
		},
		tv: map[string][]domain.ContentItem{},
	}
	svc := NewMoodService(newFakeUserStore("u1"), &fakeInteractionStore{}, metadata, &fakeResolver{}, &fakeAI{chatErr: errors.New("model offline")})

	got, err := svc.MoodToCandidates(context.Background(), "u1", "something cozy", 5)
	if err != nil {
		t.Fatalf("MoodToCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "movie:1" {
		t.Errorf("got %v, want the single hit for the raw mood query", got)
	}
}

func TestMoodToCandidatesDeduplicatesAcrossQueries(t *testing.T) {
	metadata := &fakeMetadata{
		movies: map[string][]domain.ContentItem{
			"q1": {movieHit(1), movieHit(2)},
			"q2": {movieHit(2), movieHit(3)},
		},
		tv: map[string][]domain.ContentItem{},
	}
	resolver := &fakeResolver{}
	svc := NewMoodService(newFakeUserStore("u1"), &fakeInteractionStore{}, metadata, resolver, &fakeAI{chatResponse: `["q1", "q2"]`})

	got, err := svc.MoodToCandidates(context.Background(), "u1", "anything", 10)
	if err != nil {
		t.Fatalf("MoodToCandidates: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3 distinct external ids", len(got))
	}
	if resolver.resolveCalls != 3 {
		t.Errorf("resolver called %d times, want 3 (duplicates must not be re-resolved)", resolver.resolveCalls)
	}
}

func TestMoodToCandidatesCapsLookups(t *testing.T) {
	movies := make(map[string][]domain.ContentItem)
	tv := make(map[string][]domain.ContentItem)
	for q := 0; q < 5; q++ {
		query := fmt.Sprintf("q%d", q)
		for i := 0; i < 3; i++ {
			movies[query] = append(movies[query], movieHit(q*10+i))
			tv[query] = append(tv[query], tvHit(q*10+i))
		}
	}
	resolver := &fakeResolver{}
	svc := NewMoodService(
		newFakeUserStore("u1"),
		&fakeInteractionStore{},
		&fakeMetadata{movies: movies, tv: tv},
		resolver,
		&fakeAI{chatResponse: `["q0", "q1", "q2", "q3", "q4"]`},
	)

	got, err := svc.MoodToCandidates(context.Background(), "u1", "anything", 20)
	if err != nil {
		t.Fatalf("MoodToCandidates: %v", err)
	}
	if resolver.resolveCalls != 15 {
		t.Errorf("resolver called %d times, want the 15-lookup cap", resolver.resolveCalls)
	}
	if len(got) != 15 {
		t.Errorf("got %d candidates, want 15", len(got))
	}
}

func TestMoodToCandidatesFiltersExcluded(t *testing.T) {
	metadata := &fakeMetadata{
		movies: map[string][]domain.ContentItem{
			"q1": {movieHit(1), movieHit(2)},
		},
		tv: map[string][]domain.ContentItem{},
	}
	interactions := &fakeInteractionStore{excluded: []string{"id-movie:1"}}
	svc := NewMoodService(newFakeUserStore("u1"), interactions, metadata, &fakeResolver{}, &fakeAI{chatResponse: `["q1"]`})

	got, err := svc.MoodToCandidates(context.Background(), "u1", "anything", 5)
	if err != nil {
		t.Fatalf("MoodToCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "movie:2" {
		t.Errorf("got %v, want only the non-excluded hit", got)
	}
}

func TestMoodToCandidatesSkipsFailedResolves(t *testing.T) {
	metadata := &fakeMetadata{
		movies: map[string][]domain.ContentItem{
			"q1": {movieHit(1), movieHit(2)},
		},
		tv: map[string][]domain.ContentItem{},
	}
	resolver := &fakeResolver{failing: map[string]bool{"movie:1": true}}
	svc := NewMoodService(newFakeUserStore("u1"), &fakeInteractionStore{}, metadata, resolver, &fakeAI{chatResponse: `["q1"]`})

	got, err := svc.MoodToCandidates(context.Background(), "u1", "anything", 5)
	if err != nil {
		t.Fatalf("MoodToCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ExternalID != "movie:2" {
		t.Errorf("got %v, want the resolvable hit only", got)
	}
}

func TestMoodToCandidatesTruncatesToLimit(t *testing.T) {
	metadata := &fakeMetadata{
		movies: map[string][]domain.ContentItem{
			"q1": {movieHit(1), movieHit(2), movieHit(3)},
		},
		tv: map[string][]domain.ContentItem{
			"q1": {tvHit(1), tvHit(2), tvHit(3)},
		},
	}
	svc := NewMoodService(newFakeUserStore("u1"), &fakeInteractionStore{}, metadata, &fakeResolver{}, &fakeAI{chatResponse: `["q1"]`})

	got, err := svc.MoodToCandidates(context.Background(), "u1", "anything", 2)
	if err != nil {
		t.Fatalf("MoodToCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d candidates, want limit of 2", len(got))
	}
}

func TestMoodToCandidatesUnknownUser(t *testing.T) {
	svc := NewMoodService(newFakeUserStore(), &fakeInteractionStore{}, &fakeMetadata{}, &fakeResolver{}, &fakeAI{})

	_, err := svc.MoodToCandidates(context.Background(), "ghost", "anything", 5)
	if !errors.Is(err, port.ErrUserNotFound) {
		t.Errorf("got error %v, want ErrUserNotFound", err)
	}
}
