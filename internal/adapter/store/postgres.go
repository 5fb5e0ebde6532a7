package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arturoeanton/go-movie-recommender-ollama/internal/domain"
	"github.com/arturoeanton/go-movie-recommender-ollama/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- Users ---

// UpsertUser inserts or updates a user by provider + provider_id.
func (s *PostgresStore) UpsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			access_token = EXCLUDED.access_token,
			updated_at = NOW()
		RETURNING id, email, name, avatar_url, provider, provider_id, role, created_at, updated_at`

	row := s.db.QueryRowContext(ctx, query,
		u.Email, u.Name, u.AvatarURL, u.Provider, u.ProviderID, "user", u.AccessToken,
	)

	var user domain.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, name, avatar_url, provider, provider_id, role, access_token, created_at, updated_at
	          FROM users WHERE id = $1`

	var user domain.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role, &user.AccessToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// --- Content items ---

// CreateContent inserts a new content item. The embedding stays empty until
// the async embedding job fills it in.
func (s *PostgresStore) CreateContent(ctx context.Context, c *domain.ContentItem) (*domain.ContentItem, error) {
	query := `INSERT INTO content_items (external_id, type, title, overview, poster_url, release_date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (external_id) DO UPDATE SET
	              title = EXCLUDED.title,
	              overview = EXCLUDED.overview,
	              poster_url = EXCLUDED.poster_url,
	              updated_at = NOW()
	          RETURNING id, external_id, type, title, overview, poster_url, release_date, embedded_at, created_at, updated_at`

	var item domain.ContentItem
	err := s.db.QueryRowContext(ctx, query,
		c.ExternalID, c.Type, c.Title, c.Overview, c.PosterURL, c.ReleaseDate,
	).Scan(
		&item.ID, &item.ExternalID, &item.Type, &item.Title, &item.Overview,
		&item.PosterURL, &item.ReleaseDate, &item.EmbeddedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return &item, nil
}

// GetContentByID returns a content item by its ID.
func (s *PostgresStore) GetContentByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	query := `SELECT id, external_id, type, title, overview, poster_url, release_date, embedded_at, created_at, updated_at
	          FROM content_items WHERE id = $1`
	return s.scanContent(s.db.QueryRowContext(ctx, query, id))
}

// GetContentByExternalID returns a content item by its metadata-provider id.
func (s *PostgresStore) GetContentByExternalID(ctx context.Context, externalID string) (*domain.ContentItem, error) {
	query := `SELECT id, external_id, type, title, overview, poster_url, release_date, embedded_at, created_at, updated_at
	          FROM content_items WHERE external_id = $1`
	return s.scanContent(s.db.QueryRowContext(ctx, query, externalID))
}

func (s *PostgresStore) scanContent(row *sql.Row) (*domain.ContentItem, error) {
	var item domain.ContentItem
	err := row.Scan(
		&item.ID, &item.ExternalID, &item.Type, &item.Title, &item.Overview,
		&item.PosterURL, &item.ReleaseDate, &item.EmbeddedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return &item, nil
}

// SearchContent searches catalog items by title using ILIKE.
func (s *PostgresStore) SearchContent(ctx context.Context, query string, limit int) ([]domain.ContentItem, error) {
	pattern := "%" + query + "%"
	sqlQuery := `SELECT id, external_id, type, title, overview, poster_url, release_date, embedded_at, created_at, updated_at
	             FROM content_items
	             WHERE title ILIKE $1
	             ORDER BY created_at DESC
	             LIMIT $2`

	rows, err := s.db.QueryContext(ctx, sqlQuery, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var item domain.ContentItem
		if err := rows.Scan(
			&item.ID, &item.ExternalID, &item.Type, &item.Title, &item.Overview,
			&item.PosterURL, &item.ReleaseDate, &item.EmbeddedAt, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// --- Interactions ---

// UpsertInteraction inserts or updates the single (user, content) interaction
// row. Status and rating changes land on the existing row, never a duplicate.
func (s *PostgresStore) UpsertInteraction(ctx context.Context, i *domain.Interaction) (*domain.Interaction, error) {
	query := `
		INSERT INTO interactions (user_id, content_id, status, rating, watched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, content_id) DO UPDATE SET
			status = EXCLUDED.status,
			rating = EXCLUDED.rating,
			watched_at = EXCLUDED.watched_at,
			updated_at = NOW()
		RETURNING id, user_id, content_id, status, rating, watched_at, created_at, updated_at`

	var result domain.Interaction
	var rating sql.NullFloat64
	var watchedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query,
		i.UserID, i.ContentID, i.Status, i.Rating, i.WatchedAt,
	).Scan(
		&result.ID, &result.UserID, &result.ContentID, &result.Status,
		&rating, &watchedAt, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert interaction: %w", err)
	}
	if rating.Valid {
		result.Rating = &rating.Float64
	}
	if watchedAt.Valid {
		result.WatchedAt = &watchedAt.Time
	}
	return &result, nil
}

// ClearRating removes the rating from an interaction, keeping its status.
func (s *PostgresStore) ClearRating(ctx context.Context, userID, contentID string) error {
	query := `UPDATE interactions SET rating = NULL, updated_at = NOW()
	          WHERE user_id = $1 AND content_id = $2`
	_, err := s.db.ExecContext(ctx, query, userID, contentID)
	return err
}

// ListWatchedItems returns the user's watch history joined with catalog
// titles, most recently watched first.
func (s *PostgresStore) ListWatchedItems(ctx context.Context, userID string, limit int) ([]domain.WatchedItem, error) {
	query := `SELECT c.id, c.title, c.type, c.release_date, i.rating, i.watched_at
	          FROM interactions i
	          JOIN content_items c ON c.id = i.content_id
	          WHERE i.user_id = $1 AND i.status = $2
	          ORDER BY i.watched_at DESC NULLS LAST
	          LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.InteractionStatusWatched, limit)
	if err != nil {
		return nil, fmt.Errorf("list watched items: %w", err)
	}
	defer rows.Close()

	var items []domain.WatchedItem
	for rows.Next() {
		var item domain.WatchedItem
		var releaseDate sql.NullTime
		var rating sql.NullFloat64
		var watchedAt sql.NullTime
		if err := rows.Scan(&item.ContentID, &item.Title, &item.Type, &releaseDate, &rating, &watchedAt); err != nil {
			return nil, fmt.Errorf("scan watched item: %w", err)
		}
		if releaseDate.Valid {
			item.Year = releaseDate.Time.Year()
		}
		if rating.Valid {
			item.Rating = &rating.Float64
		}
		if watchedAt.Valid {
			item.WatchedAt = &watchedAt.Time
		}
		items = append(items, item)
	}
	return items, nil
}

// ListWatchedEmbeddings returns (embedding, rating) pairs for content the user
// has watched and which has a stored embedding. Input to the taste-vector
// computation.
func (s *PostgresStore) ListWatchedEmbeddings(ctx context.Context, userID string) ([]domain.RatedEmbedding, error) {
	query := `SELECT c.id, i.rating, c.embedding::text
	          FROM interactions i
	          JOIN content_items c ON c.id = i.content_id
	          WHERE i.user_id = $1 AND i.status = $2 AND c.embedding IS NOT NULL`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.InteractionStatusWatched)
	if err != nil {
		return nil, fmt.Errorf("list watched embeddings: %w", err)
	}
	defer rows.Close()

	var pairs []domain.RatedEmbedding
	for rows.Next() {
		var pair domain.RatedEmbedding
		var rating sql.NullFloat64
		var vectorStr string
		if err := rows.Scan(&pair.ContentID, &rating, &vectorStr); err != nil {
			return nil, fmt.Errorf("scan watched embedding: %w", err)
		}
		if rating.Valid {
			pair.Rating = &rating.Float64
		}
		vec, err := parseVector(vectorStr)
		if err != nil {
			return nil, fmt.Errorf("parse embedding for %s: %w", pair.ContentID, err)
		}
		pair.Vector = vec
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ListExcludedContentIDs returns the union of the user's watched and dismissed
// content ids, for exclusion from candidate retrieval.
func (s *PostgresStore) ListExcludedContentIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT content_id FROM interactions WHERE user_id = $1 AND status = $2
	          UNION
	          SELECT content_id FROM dismissals WHERE user_id = $1`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.InteractionStatusWatched)
	if err != nil {
		return nil, fmt.Errorf("list excluded content: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan excluded content: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --- Dismissals ---

// Dismiss marks a content item as permanently excluded from the user's future
// candidate sets. Idempotent: re-dismissing is a no-op.
func (s *PostgresStore) Dismiss(ctx context.Context, userID, contentID string) error {
	query := `INSERT INTO dismissals (user_id, content_id)
	          VALUES ($1, $2)
	          ON CONFLICT (user_id, content_id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, userID, contentID)
	if err != nil {
		return fmt.Errorf("dismiss content: %w", err)
	}
	return nil
}

// --- Stats ---

// UserStats summarizes a user's watch history.
type UserStats struct {
	Watched       int                  `json:"watched"`
	ToWatch       int                  `json:"to_watch"`
	Favourites    int                  `json:"favourites"`
	Rated         int                  `json:"rated"`
	AverageRating float64              `json:"average_rating"`
	ByType        map[string]int       `json:"by_type"`
	RecentTitles  []domain.WatchedItem `json:"recent_titles"`
}

// GetUserStats aggregates interaction counts and ratings for a user.
func (s *PostgresStore) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	stats := &UserStats{ByType: make(map[string]int)}

	query := `SELECT i.status, c.type, i.rating
	          FROM interactions i
	          JOIN content_items c ON c.id = i.content_id
	          WHERE i.user_id = $1`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get user stats: %w", err)
	}
	defer rows.Close()

	ratingSum := 0.0
	for rows.Next() {
		var status, contentType string
		var rating sql.NullFloat64
		if err := rows.Scan(&status, &contentType, &rating); err != nil {
			return nil, fmt.Errorf("scan user stats: %w", err)
		}
		switch status {
		case domain.InteractionStatusWatched:
			stats.Watched++
			stats.ByType[contentType]++
		case domain.InteractionStatusToWatch:
			stats.ToWatch++
		case domain.InteractionStatusFavourite:
			stats.Favourites++
		}
		if rating.Valid {
			stats.Rated++
			ratingSum += rating.Float64
		}
	}
	if stats.Rated > 0 {
		stats.AverageRating = ratingSum / float64(stats.Rated)
	}

	recent, err := s.ListWatchedItems(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	stats.RecentTitles = recent

	return stats, nil
}

// --- Audit Logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err := s.db.ExecContext(context.Background(), query,
		userID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs with optional filters.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, user_id, action, resource, resource_id, details, ip, user_agent, created_at
	          FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}
