package domain

import "time"

// Interaction status constants.
const (
	InteractionStatusWatched   = "watched"
	InteractionStatusToWatch   = "to_watch"
	InteractionStatusFavourite = "favourite"
)

// Interaction records a user's relationship with a content item.
// There is exactly one row per (user, content) pair; status and rating
// changes update the row in place.
type Interaction struct {
	ID        string     `json:"id"         db:"id"`
	UserID    string     `json:"user_id"    db:"user_id"`
	ContentID string     `json:"content_id" db:"content_id"`
	Status    string     `json:"status"     db:"status"`
	Rating    *float64   `json:"rating,omitempty"     db:"rating"` // 0-10, half-point precision
	WatchedAt *time.Time `json:"watched_at,omitempty" db:"watched_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Dismissal marks a content item as permanently excluded from a user's
// future recommendation candidates. Append-only, idempotent insert.
type Dismissal struct {
	UserID    string    `json:"user_id"    db:"user_id"`
	ContentID string    `json:"content_id" db:"content_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidRating reports whether r is within 0-10 at half-point precision.
func ValidRating(r float64) bool {
	if r < 0 || r > 10 {
		return false
	}
	doubled := r * 2
	return doubled == float64(int(doubled))
}
