package domain

import "time"

// ContentType enumerates the kinds of catalog content.
type ContentType string

// Supported content types.
const (
	ContentTypeMovie       ContentType = "movie"
	ContentTypeTV          ContentType = "tv"
	ContentTypeDocumentary ContentType = "documentary"
)

// ContentItem represents a single title in the catalog.
// The embedding is computed asynchronously after registration; items without a
// stored embedding are excluded from similarity search until the job completes.
type ContentItem struct {
	ID          string      `json:"id"           db:"id"`
	ExternalID  string      `json:"external_id"  db:"external_id"` // metadata provider id, e.g. "movie:603"
	Type        ContentType `json:"type"         db:"type"`
	Title       string      `json:"title"        db:"title"`
	Overview    string      `json:"overview"     db:"overview"`
	PosterURL   string      `json:"poster_url"   db:"poster_url"`
	ReleaseDate *time.Time  `json:"release_date,omitempty" db:"release_date"`
	Embedding   []float32   `json:"-"            db:"embedding"`
	EmbeddedAt  *time.Time  `json:"embedded_at,omitempty"  db:"embedded_at"`
	CreatedAt   time.Time   `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"   db:"updated_at"`
}

// Year returns the release year, or 0 when the release date is unknown.
func (c *ContentItem) Year() int {
	if c.ReleaseDate == nil {
		return 0
	}
	return c.ReleaseDate.Year()
}

// Embedded reports whether the item has a stored embedding vector.
func (c *ContentItem) Embedded() bool {
	return len(c.Embedding) > 0
}
