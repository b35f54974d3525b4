package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"blogsearch/internal/contextutil"
)

const (
	// DefaultMaxResults caps how many matches a query returns.
	DefaultMaxResults = 5
	// DefaultMinQueryLen is the minimum trimmed query length before a search runs.
	DefaultMinQueryLen = 2
)

// Entry is one record of the search index: the metadata of a single post.
// Entries are immutable once loaded; queries never modify them.
type Entry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Result is the outcome of a single query against the widget.
// Hidden means the query was too short to search at all; a non-hidden
// result with no entries is the explicit "no results" state.
type Result struct {
	Query   string
	Hidden  bool
	Entries []Entry
}

// NoResults reports whether the query ran and matched nothing.
func (r Result) NoResults() bool {
	return !r.Hidden && len(r.Entries) == 0
}

// indexedEntry pairs an entry with its case-lowered fields so queries
// don't re-lower the whole corpus on every keystroke.
type indexedEntry struct {
	entry        Entry
	loweredTitle string
	loweredBody  string
}

// Widget performs substring search over a loaded index of post metadata.
// It owns its index and receives the loader by injection, so it can be
// unit-tested without touching the network or filesystem.
type Widget struct {
	loader     Loader
	maxResults int
	minQuery   int
	logger     *slog.Logger

	mu      sync.RWMutex
	entries []indexedEntry
}

// Option configures a Widget.
type Option func(*Widget)

// WithMaxResults overrides the result cap (default 5).
func WithMaxResults(n int) Option {
	return func(w *Widget) {
		if n > 0 {
			w.maxResults = n
		}
	}
}

// WithMinQueryLen overrides the minimum query length (default 2).
func WithMinQueryLen(n int) Option {
	return func(w *Widget) {
		if n > 0 {
			w.minQuery = n
		}
	}
}

// NewWidget creates a widget that loads its index from the given loader.
func NewWidget(loader Loader, opts ...Option) *Widget {
	w := &Widget{
		loader:     loader,
		maxResults: DefaultMaxResults,
		minQuery:   DefaultMinQueryLen,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load fetches the index through the injected loader and replaces the
// working index with the result. A load failure is not fatal: it is logged
// and the index becomes empty, so every subsequent query simply finds no
// matches. Load is called at startup and again after an index rebuild;
// Query never triggers a load.
func (w *Widget) Load(ctx context.Context) {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := w.loader.Fetch(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load search index", "error", err)
		entries = nil
	}

	indexed := make([]indexedEntry, len(entries))
	for i, e := range entries {
		indexed[i] = indexedEntry{
			entry:        e,
			loweredTitle: strings.ToLower(e.Title),
			loweredBody:  strings.ToLower(e.Content),
		}
	}

	w.mu.Lock()
	w.entries = indexed
	w.mu.Unlock()

	if err == nil {
		logger.InfoContext(ctx, "search index loaded", "entries", len(indexed))
	}
}

// Len returns the number of entries in the working index.
func (w *Widget) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}

// Query runs one search over the in-memory index. The query is lower-cased
// and trimmed; anything shorter than the minimum length yields a hidden
// result without searching. A match is a case-insensitive substring hit on
// either title or content. At most maxResults entries are returned, in
// index order; there is no ranking beyond that order.
func (w *Widget) Query(raw string) Result {
	query := strings.TrimSpace(strings.ToLower(raw))

	if utf8.RuneCountInString(query) < w.minQuery {
		return Result{Query: query, Hidden: true}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	matches := make([]Entry, 0, w.maxResults)
	for _, ie := range w.entries {
		if strings.Contains(ie.loweredTitle, query) || strings.Contains(ie.loweredBody, query) {
			matches = append(matches, ie.entry)
			if len(matches) == w.maxResults {
				break
			}
		}
	}

	return Result{Query: query, Entries: matches}
}
