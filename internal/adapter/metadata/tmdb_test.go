package metadata

import (
	"context"
	"strings"
	"testing"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
)

func TestToContentItem(t *testing.T) {
	p := NewTMDBProvider("https://api.themoviedb.org/3", "test-key")

	t.Run("movie fields", func(t *testing.T) {
		item := p.toContentItem(tmdbResult{
			ID:          603,
			Title:       "The Matrix",
			Overview:    "A hacker learns the truth.",
			PosterPath:  "/matrix.jpg",
			ReleaseDate: "1999-03-31",
		}, domain.ContentTypeMovie)

		if item.ExternalID != "movie:603" {
			t.Errorf("external id = %q, want movie:603", item.ExternalID)
		}
		if item.Type != domain.ContentTypeMovie {
			t.Errorf("type = %q, want movie", item.Type)
		}
		if item.Title != "The Matrix" {
			t.Errorf("title = %q, want The Matrix", item.Title)
		}
		if item.PosterURL != "https://image.tmdb.org/t/p/w500/matrix.jpg" {
			t.Errorf("poster url = %q", item.PosterURL)
		}
		if item.Year() != 1999 {
			t.Errorf("year = %d, want 1999", item.Year())
		}
	})

	t.Run("tv uses name and first air date", func(t *testing.T) {
		item := p.toContentItem(tmdbResult{
			ID:           1396,
			Name:         "Breaking Bad",
			FirstAirDate: "2008-01-20",
		}, domain.ContentTypeTV)

		if item.ExternalID != "tv:1396" {
			t.Errorf("external id = %q, want tv:1396", item.ExternalID)
		}
		if item.Title != "Breaking Bad" {
			t.Errorf("title = %q, want Breaking Bad", item.Title)
		}
		if item.Year() != 2008 {
			t.Errorf("year = %d, want 2008", item.Year())
		}
	})

	t.Run("documentary genre reclassifies", func(t *testing.T) {
		item := p.toContentItem(tmdbResult{
			ID:       424632,
			Title:    "Free Solo",
			GenreIDs: []int{99, 12},
		}, domain.ContentTypeMovie)

		if item.Type != domain.ContentTypeDocumentary {
			t.Errorf("type = %q, want documentary", item.Type)
		}
		// The external id keeps the media kind it was searched under.
		if !strings.HasPrefix(item.ExternalID, "movie:") {
			t.Errorf("external id = %q, want movie: prefix", item.ExternalID)
		}
	})

	t.Run("missing date and poster stay empty", func(t *testing.T) {
		item := p.toContentItem(tmdbResult{ID: 1, Title: "Untitled"}, domain.ContentTypeMovie)
		if item.ReleaseDate != nil {
			t.Errorf("release date = %v, want nil", item.ReleaseDate)
		}
		if item.PosterURL != "" {
			t.Errorf("poster url = %q, want empty", item.PosterURL)
		}
	})
}

func TestLookupRejectsMalformedIDs(t *testing.T) {
	p := NewTMDBProvider("https://api.themoviedb.org/3", "test-key")

	for _, id := range []string{"603", "vhs:1", ""} {
		if _, err := p.Lookup(context.Background(), id); err == nil {
			t.Errorf("Lookup(%q) succeeded, want error", id)
		}
	}
}
