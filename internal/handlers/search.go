package handlers

import (
	"encoding/json"
	"net/http"

	"blogsearch/internal/contextutil"
	"blogsearch/internal/search"
)

// Searcher is the part of the search widget the HTTP layer needs.
type Searcher interface {
	Query(raw string) search.Result
}

// SearchHandler handles live search requests from the search page.
type SearchHandler struct {
	widget Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(widget Searcher) *SearchHandler {
	return &SearchHandler{widget: widget}
}

// SearchResult is one match in the search response. The post content is
// used only for matching and is never echoed back.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}

// SearchResponse represents the response payload for search queries.
type SearchResponse struct {
	Query     string         `json:"query"`
	Hidden    bool           `json:"hidden"`
	NoResults bool           `json:"no_results"`
	Results   []SearchResult `json:"results"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP answers GET /api/search?q=... by querying the in-memory index.
// With format=html the response is the rendered result-panel fragment
// instead of JSON, ready to inject into the results container.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	res := h.widget.Query(r.URL.Query().Get("q"))

	if r.URL.Query().Get("format") == "html" {
		fragment, err := search.RenderPanel(res)
		if err != nil {
			logger.ErrorContext(ctx, "failed to render result panel", "error", err)
			h.writeError(w, http.StatusInternalServerError, "Failed to render results")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fragment))
		return
	}

	results := make([]SearchResult, len(res.Entries))
	for i, entry := range res.Entries {
		results[i] = SearchResult{
			Title: entry.Title,
			URL:   entry.URL,
			Date:  entry.Date,
		}
	}

	resp := SearchResponse{
		Query:     res.Query,
		Hidden:    res.Hidden,
		NoResults: res.NoResults(),
		Results:   results,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func (h *SearchHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
