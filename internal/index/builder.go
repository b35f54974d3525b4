package index

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"blogsearch/internal/contextutil"
	"blogsearch/internal/posts"
	"blogsearch/internal/search"
	"blogsearch/internal/storage"
)

// Builder turns the markdown posts directory into the search index: post
// records in SQLite plus the search.json file the widget loads.
type Builder struct {
	scanner   *posts.Scanner
	parser    *posts.Parser
	postRepo  storage.PostStore
	indexPath string
	logger    *slog.Logger
}

// NewBuilder creates a new index builder.
func NewBuilder(scanner *posts.Scanner, parser *posts.Parser, postRepo storage.PostStore, indexPath string) *Builder {
	return &Builder{
		scanner:   scanner,
		parser:    parser,
		postRepo:  postRepo,
		indexPath: indexPath,
		logger:    slog.Default(),
	}
}

// BuildAll scans the posts directory, indexes every markdown file, prunes
// records whose files are gone, and rewrites the index file. Errors for
// individual files are logged but don't stop the build.
func (b *Builder) BuildAll(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	scanned, err := b.scanner.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan posts: %w", err)
	}

	logger.InfoContext(ctx, "starting index build", "total_files", len(scanned))

	seen := make(map[string]bool, len(scanned))
	var successCount, errorCount int

	for _, file := range scanned {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		indexed, err := b.indexPost(ctx, file)
		if err != nil {
			errorCount++
			logger.ErrorContext(ctx, "failed to index post", "rel_path", file.RelPath, "error", err)
			continue
		}

		seen[file.RelPath] = true
		if indexed {
			successCount++
		}
	}

	if err := b.pruneStale(ctx, seen); err != nil {
		return err
	}

	if err := b.WriteIndex(ctx); err != nil {
		return err
	}

	logger.InfoContext(ctx, "index build completed", "total_files", len(scanned), "indexed", successCount, "errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("index build completed with %d errors", errorCount)
	}

	return nil
}

// indexPost indexes a single post file. It reports whether the record was
// written (false when the file was skipped as unchanged or dropped as a draft).
func (b *Builder) indexPost(ctx context.Context, file posts.ScannedPost) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return false, fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	// Compute SHA256 hash
	hash := sha256.Sum256(content)
	hashHex := fmt.Sprintf("%x", hash)

	// Check existing record
	existing, err := b.postRepo.GetByPath(ctx, file.RelPath)
	if err != nil && err != storage.ErrNotFound {
		return false, fmt.Errorf("failed to check existing post: %w", err)
	}

	// Skip re-indexing if hash matches
	if existing != nil && existing.Hash == hashHex {
		logger.DebugContext(ctx, "skipping unchanged post", "rel_path", file.RelPath, "hash", hashHex)
		return false, nil
	}

	info, err := os.Stat(file.AbsPath)
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", file.AbsPath, err)
	}

	post, err := b.parser.Parse(content, file.RelPath, info.ModTime())
	if err != nil {
		return false, fmt.Errorf("failed to parse post: %w", err)
	}

	// Drafts are kept out of the index; a post flipped back to draft is removed
	if post.Draft {
		if existing != nil {
			if err := b.postRepo.DeleteByPath(ctx, file.RelPath); err != nil {
				return false, fmt.Errorf("failed to remove draft: %w", err)
			}
		}
		logger.DebugContext(ctx, "skipping draft", "rel_path", file.RelPath)
		return false, nil
	}

	record := &storage.PostRecord{
		RelPath: post.RelPath,
		Title:   post.Title,
		URL:     post.URL,
		Date:    post.Date,
		Content: post.Content,
		Hash:    hashHex,
	}
	if existing != nil {
		record.ID = existing.ID
	}

	if err := b.postRepo.Upsert(ctx, record); err != nil {
		return false, fmt.Errorf("failed to upsert post: %w", err)
	}

	logger.InfoContext(ctx, "indexed post", "rel_path", file.RelPath, "title", post.Title, "date", post.Date)
	return true, nil
}

// pruneStale removes records whose source files no longer exist.
func (b *Builder) pruneStale(ctx context.Context, seen map[string]bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	all, err := b.postRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	for _, post := range all {
		if seen[post.RelPath] {
			continue
		}
		if err := b.postRepo.DeleteByPath(ctx, post.RelPath); err != nil {
			return fmt.Errorf("failed to prune stale post %s: %w", post.RelPath, err)
		}
		logger.InfoContext(ctx, "pruned deleted post", "rel_path", post.RelPath)
	}

	return nil
}

// WriteIndex serializes the current post records to the index file as a JSON
// array of entries ordered newest-first, so index order doubles as recency
// order. The write goes through a temp file and rename so readers never see
// a partially written index.
func (b *Builder) WriteIndex(ctx context.Context) error {
	all, err := b.postRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	entries := make([]search.Entry, len(all))
	for i, post := range all {
		entries[i] = search.Entry{
			Title:   post.Title,
			URL:     post.URL,
			Date:    post.Date,
			Content: post.Content,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.indexPath), "search-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tmpPath, b.indexPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace index file: %w", err)
	}

	return nil
}

// ClearAll removes every stored post record. Used by forced rebuilds.
func (b *Builder) ClearAll(ctx context.Context) error {
	if err := b.postRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear posts: %w", err)
	}
	return nil
}

// IndexPath returns the path of the index file this builder writes.
func (b *Builder) IndexPath() string {
	return b.indexPath
}
