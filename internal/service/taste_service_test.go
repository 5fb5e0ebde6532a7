package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

func ratingPtr(r float64) *float64 { return &r }

func TestComputeTasteVectorWeighting(t *testing.T) {
	// Two items: rated 8.0 (weight 0.8) and rated 4.0 (weight 0.4).
	// Normalized weights are 0.8/1.2 and 0.4/1.2.
	interactions := &fakeInteractionStore{
		embeddings: []domain.RatedEmbedding{
			{ContentID: "a", Rating: ratingPtr(8.0), Vector: []float32{1, 0}},
			{ContentID: "b", Rating: ratingPtr(4.0), Vector: []float32{0, 1}},
		},
	}
	tastes := newFakeTasteStore()
	svc := NewTasteService(newFakeUserStore("u1"), interactions, tastes)

	vec, err := svc.ComputeTasteVector(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ComputeTasteVector: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("got %d dimensions, want 2", len(vec))
	}

	wantX := 0.8 / 1.2
	wantY := 0.4 / 1.2
	if math.Abs(float64(vec[0])-wantX) > 1e-6 {
		t.Errorf("vec[0] = %v, want %v", vec[0], wantX)
	}
	if math.Abs(float64(vec[1])-wantY) > 1e-6 {
		t.Errorf("vec[1] = %v, want %v", vec[1], wantY)
	}

	stored := tastes.vectors["u1"]
	if len(stored) != 2 || stored[0] != vec[0] || stored[1] != vec[1] {
		t.Errorf("stored vector %v does not match returned vector %v", stored, vec)
	}
}

func TestComputeTasteVectorRatingDefaults(t *testing.T) {
	tests := []struct {
		name    string
		ratings []*float64
		// expected normalized weight of the first item
		wantFirst float64
	}{
		{
			name:      "unrated items count as neutral 5.0",
			ratings:   []*float64{nil, ratingPtr(5.0)},
			wantFirst: 0.5,
		},
		{
			name:      "zero rating floors at minimum weight",
			ratings:   []*float64{ratingPtr(0.0), ratingPtr(9.0)},
			wantFirst: 0.1 / 1.0,
		},
		{
			name:      "low rating floors at minimum weight",
			ratings:   []*float64{ratingPtr(0.5), ratingPtr(9.0)},
			wantFirst: 0.1 / 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interactions := &fakeInteractionStore{
				embeddings: []domain.RatedEmbedding{
					{ContentID: "a", Rating: tt.ratings[0], Vector: []float32{1, 0}},
					{ContentID: "b", Rating: tt.ratings[1], Vector: []float32{0, 1}},
				},
			}
			svc := NewTasteService(newFakeUserStore("u1"), interactions, newFakeTasteStore())

			vec, err := svc.ComputeTasteVector(context.Background(), "u1")
			if err != nil {
				t.Fatalf("ComputeTasteVector: %v", err)
			}
			if math.Abs(float64(vec[0])-tt.wantFirst) > 1e-6 {
				t.Errorf("vec[0] = %v, want %v", vec[0], tt.wantFirst)
			}
		})
	}
}

func TestComputeTasteVectorEmptyHistoryClearsStoredVector(t *testing.T) {
	tastes := newFakeTasteStore()
	tastes.vectors["u1"] = []float32{0.5, 0.5}

	svc := NewTasteService(newFakeUserStore("u1"), &fakeInteractionStore{}, tastes)

	vec, err := svc.ComputeTasteVector(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ComputeTasteVector: %v", err)
	}
	if vec != nil {
		t.Errorf("got vector %v, want nil for empty history", vec)
	}
	if _, ok := tastes.vectors["u1"]; ok {
		t.Error("stale taste vector was not cleared")
	}
	if tastes.setCalls != 1 {
		t.Errorf("SetTasteVector called %d times, want 1", tastes.setCalls)
	}
}

func TestComputeTasteVectorUnknownUser(t *testing.T) {
	svc := NewTasteService(newFakeUserStore(), &fakeInteractionStore{}, newFakeTasteStore())

	_, err := svc.ComputeTasteVector(context.Background(), "ghost")
	if !errors.Is(err, port.ErrUserNotFound) {
		t.Errorf("got error %v, want ErrUserNotFound", err)
	}
}

func TestComputeTasteVectorDimensionMismatch(t *testing.T) {
	interactions := &fakeInteractionStore{
		embeddings: []domain.RatedEmbedding{
			{ContentID: "a", Vector: []float32{1, 0, 0}},
			{ContentID: "b", Vector: []float32{0, 1}},
		},
	}
	tastes := newFakeTasteStore()
	svc := NewTasteService(newFakeUserStore("u1"), interactions, tastes)

	_, err := svc.ComputeTasteVector(context.Background(), "u1")
	if !port.IsDimensionMismatch(err) {
		t.Fatalf("got error %v, want dimension mismatch", err)
	}
	if tastes.setCalls != 0 {
		t.Error("taste vector must not be written when input embeddings are inconsistent")
	}
}

func TestComputeTasteVectorDeterministic(t *testing.T) {
	interactions := &fakeInteractionStore{
		embeddings: []domain.RatedEmbedding{
			{ContentID: "a", Rating: ratingPtr(7.5), Vector: []float32{0.3, 0.1, 0.9}},
			{ContentID: "b", Rating: ratingPtr(2.0), Vector: []float32{0.8, 0.2, 0.1}},
			{ContentID: "c", Rating: nil, Vector: []float32{0.5, 0.5, 0.5}},
		},
	}
	svc := NewTasteService(newFakeUserStore("u1"), interactions, newFakeTasteStore())

	first, err := svc.ComputeTasteVector(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ComputeTasteVector: %v", err)
	}
	second, err := svc.ComputeTasteVector(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ComputeTasteVector: %v", err)
	}
	for d := range first {
		if first[d] != second[d] {
			t.Fatalf("recompute changed dimension %d: %v vs %v", d, first[d], second[d])
		}
	}
}
