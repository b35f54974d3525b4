package posts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScannedPost represents a markdown file found during posts scanning.
type ScannedPost struct {
	RelPath string // Relative path from the posts root (e.g., "2025/k3d-on-ubuntu.md")
	AbsPath string // Absolute file path
}

// Scanner finds markdown posts under a posts root directory.
type Scanner struct {
	root string
}

// NewScanner creates a scanner for the given posts root.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// ScanAll walks the posts root and returns a list of all markdown files found.
// Hidden directories (dot-prefixed) and non-markdown files are skipped.
func (s *Scanner) ScanAll(ctx context.Context) ([]ScannedPost, error) {
	var scanned []ScannedPost

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Skip directories
		if info.IsDir() {
			// Skip hidden directories (.git, .obsidian, editor state)
			if strings.HasPrefix(info.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}

		// Filter for markdown files
		if filepath.Ext(path) != ".md" {
			return nil
		}

		// Compute relative path from the posts root
		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		// Normalize relative path (use forward slashes for consistency)
		relPath = filepath.ToSlash(relPath)

		scanned = append(scanned, ScannedPost{
			RelPath: relPath,
			AbsPath: path,
		})
		return nil
	})

	if err != nil {
		return scanned, fmt.Errorf("failed to scan posts directory %s: %w", s.root, err)
	}

	return scanned, nil
}
