package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

const tmdbGenreDocumentary = 99

// TMDBProvider implements port.MetadataProvider against the TMDB REST API.
type TMDBProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTMDBProvider creates a new TMDB metadata provider.
func NewTMDBProvider(baseURL, apiKey string) *TMDBProvider {
	return &TMDBProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// tmdbResult is the shape shared by TMDB search and detail payloads.
// Movies use title/release_date, TV uses name/first_air_date.
type tmdbResult struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	GenreIDs     []int  `json:"genre_ids"`
	Genres       []struct {
		ID int `json:"id"`
	} `json:"genres"`
}

// SearchMovies searches movie titles, returning at most limit hits.
func (t *TMDBProvider) SearchMovies(ctx context.Context, query string, limit int) ([]domain.ContentItem, error) {
	return t.search(ctx, "/search/movie", query, limit, domain.ContentTypeMovie)
}

// SearchTV searches TV titles, returning at most limit hits.
func (t *TMDBProvider) SearchTV(ctx context.Context, query string, limit int) ([]domain.ContentItem, error) {
	return t.search(ctx, "/search/tv", query, limit, domain.ContentTypeTV)
}

func (t *TMDBProvider) search(ctx context.Context, path, query string, limit int, kind domain.ContentType) ([]domain.ContentItem, error) {
	params := url.Values{
		"api_key": {t.apiKey},
		"query":   {query},
	}

	body, err := t.get(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}

	var resp struct {
		Results []tmdbResult `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("tmdb search decode: %w", err)
	}

	items := make([]domain.ContentItem, 0, limit)
	for _, r := range resp.Results {
		if len(items) >= limit {
			break
		}
		items = append(items, t.toContentItem(r, kind))
	}
	return items, nil
}

// Lookup fetches full details for an external id like "movie:603" or "tv:1396".
func (t *TMDBProvider) Lookup(ctx context.Context, externalID string) (*domain.ContentItem, error) {
	kind, id, ok := strings.Cut(externalID, ":")
	if !ok {
		return nil, fmt.Errorf("tmdb lookup: malformed external id %q", externalID)
	}

	var path string
	var contentType domain.ContentType
	switch kind {
	case "movie":
		path = "/movie/" + id
		contentType = domain.ContentTypeMovie
	case "tv":
		path = "/tv/" + id
		contentType = domain.ContentTypeTV
	default:
		return nil, fmt.Errorf("tmdb lookup: unknown media kind %q", kind)
	}

	body, err := t.get(ctx, path, url.Values{"api_key": {t.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("tmdb lookup: %w", err)
	}

	var r tmdbResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("tmdb lookup decode: %w", err)
	}
	if r.ID == 0 {
		return nil, port.ErrContentNotFound
	}

	item := t.toContentItem(r, contentType)
	return &item, nil
}

// toContentItem maps a TMDB payload into the catalog model. Titles carrying
// the documentary genre are reclassified regardless of media kind.
func (t *TMDBProvider) toContentItem(r tmdbResult, kind domain.ContentType) domain.ContentItem {
	title := r.Title
	dateStr := r.ReleaseDate
	prefix := "movie"
	if kind == domain.ContentTypeTV {
		title = r.Name
		dateStr = r.FirstAirDate
		prefix = "tv"
	}

	for _, g := range r.GenreIDs {
		if g == tmdbGenreDocumentary {
			kind = domain.ContentTypeDocumentary
		}
	}
	for _, g := range r.Genres {
		if g.ID == tmdbGenreDocumentary {
			kind = domain.ContentTypeDocumentary
		}
	}

	item := domain.ContentItem{
		ExternalID: prefix + ":" + strconv.Itoa(r.ID),
		Type:       kind,
		Title:      title,
		Overview:   r.Overview,
	}
	if r.PosterPath != "" {
		item.PosterURL = "https://image.tmdb.org/t/p/w500" + r.PosterPath
	}
	if dateStr != "" {
		if parsed, err := time.Parse("2006-01-02", dateStr); err == nil {
			item.ReleaseDate = &parsed
		}
	}
	return item
}

// get performs a GET request against the TMDB API.
func (t *TMDBProvider) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tmdb API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
