package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_post_store.go -package=mocks blogsearch/internal/storage PostStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// PostStore defines the interface for post storage operations.
type PostStore interface {
	// GetByPath gets a post by its relative path.
	// Returns nil and ErrNotFound if not found.
	GetByPath(ctx context.Context, relPath string) (*PostRecord, error)
	// Upsert inserts a new post or updates an existing one.
	Upsert(ctx context.Context, post *PostRecord) error
	// ListAll returns all posts ordered by date descending (newest first).
	ListAll(ctx context.Context) ([]PostRecord, error)
	// DeleteByPath removes the post with the given relative path.
	DeleteByPath(ctx context.Context, relPath string) error
	// DeleteAll removes every post record.
	DeleteAll(ctx context.Context) error
}

// PostRepo provides methods for post operations.
// It implements the PostStore interface.
type PostRepo struct {
	db *sql.DB
}

// NewPostRepo creates a new PostRepo.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

// GetByPath gets a post by its relative path.
// Returns nil and ErrNotFound if not found.
func (r *PostRepo) GetByPath(ctx context.Context, relPath string) (*PostRecord, error) {
	var post PostRecord
	var updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, rel_path, title, url, date, content, hash, updated_at FROM posts WHERE rel_path = ?",
		relPath,
	).Scan(&post.ID, &post.RelPath, &post.Title, &post.URL, &post.Date, &post.Content, &post.Hash, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}

	post.UpdatedAt, err = parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// Upsert inserts a new post or updates an existing one.
// If the post doesn't exist (by rel_path), generates a new UUID.
// If it exists, updates title, url, date, content, hash, and updated_at while preserving the ID.
func (r *PostRepo) Upsert(ctx context.Context, post *PostRecord) error {
	// Check if post exists to determine if we need to generate UUID
	existing, err := r.GetByPath(ctx, post.RelPath)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing post: %w", err)
	}

	// Generate UUID for new posts only
	if existing == nil && post.ID == "" {
		post.ID = uuid.New().String()
	} else if existing != nil {
		// Preserve existing ID
		post.ID = existing.ID
	}

	// Use SQLite INSERT ... ON CONFLICT syntax for upsert
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO posts (id, rel_path, title, url, date, content, hash, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (rel_path) DO UPDATE SET
		 title = excluded.title, url = excluded.url, date = excluded.date,
		 content = excluded.content, hash = excluded.hash, updated_at = CURRENT_TIMESTAMP`,
		post.ID, post.RelPath, post.Title, post.URL, post.Date, post.Content, post.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}

	return nil
}

// ListAll returns all posts ordered by date descending, so the index order
// is newest-first. Posts sharing a date are ordered by rel_path for stability.
func (r *PostRepo) ListAll(ctx context.Context) ([]PostRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, rel_path, title, url, date, content, hash, updated_at FROM posts ORDER BY date DESC, rel_path ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []PostRecord
	for rows.Next() {
		var post PostRecord
		var updatedAtStr string
		if err := rows.Scan(&post.ID, &post.RelPath, &post.Title, &post.URL, &post.Date, &post.Content, &post.Hash, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		post.UpdatedAt, err = parseTimestamp(updatedAtStr)
		if err != nil {
			return nil, err
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// DeleteByPath removes the post with the given relative path.
func (r *PostRepo) DeleteByPath(ctx context.Context, relPath string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE rel_path = ?", relPath)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// DeleteAll removes every post record.
func (r *PostRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM posts")
	if err != nil {
		return fmt.Errorf("failed to delete posts: %w", err)
	}
	return nil
}

// parseTimestamp parses a SQLite DATETIME string.
func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		// Try alternative format (SQLite might use different format)
		ts, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
		}
	}
	return ts, nil
}
