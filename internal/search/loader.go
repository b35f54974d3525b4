package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Loader fetches the search index for a widget.
type Loader interface {
	// Fetch returns the full index. It is called once per widget load,
	// never per query.
	Fetch(ctx context.Context) ([]Entry, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]Entry, error)

// Fetch calls f.
func (f LoaderFunc) Fetch(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// FileLoader reads the index from a JSON file on disk. This is the common
// case: the same process writes the file during an index build.
type FileLoader struct {
	Path string
}

// NewFileLoader creates a loader for the given index file path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// Fetch reads and parses the index file.
func (l *FileLoader) Fetch(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", l.Path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", l.Path, err)
	}

	return entries, nil
}

// HTTPLoader fetches the index from a URL, for setups where the index is
// published by a separate static host.
type HTTPLoader struct {
	URL    string
	client *http.Client
}

// NewHTTPLoader creates a loader that fetches the index from the given URL.
func NewHTTPLoader(url string) *HTTPLoader {
	return &HTTPLoader{
		URL:    url,
		client: http.DefaultClient,
	}
}

// Fetch downloads and parses the index.
func (l *HTTPLoader) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}

	return entries, nil
}
