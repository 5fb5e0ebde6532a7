package domain

import "time"

// RecommendationCandidate is a catalog item scored against a user's taste
// vector. Candidates are derived per request and never persisted.
type RecommendationCandidate struct {
	ContentItem
	Similarity  float64 `json:"similarity"` // 1 - cosine distance
	Distance    float64 `json:"distance"`
	Explanation string  `json:"explanation,omitempty"`
}

// RatedEmbedding pairs a watched item's stored embedding with its rating.
// Input to the taste-vector computation.
type RatedEmbedding struct {
	ContentID string
	Rating    *float64 // nil = unrated, treated as a neutral 5.0
	Vector    []float32
}

// WatchedItem is a lightweight view of a watch-history entry used to build
// LLM prompts and stats.
type WatchedItem struct {
	ContentID string      `json:"content_id"`
	Title     string      `json:"title"`
	Type      ContentType `json:"type"`
	Year      int         `json:"year,omitempty"`
	Rating    *float64    `json:"rating,omitempty"`
	WatchedAt *time.Time  `json:"watched_at,omitempty"`
}
