package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"blogsearch/internal/contextutil"
)

// IndexBuilder is the part of the index builder the HTTP layer needs.
type IndexBuilder interface {
	BuildAll(ctx context.Context) error
	ClearAll(ctx context.Context) error
}

// IndexReloader reloads the search widget's in-memory index after a build.
type IndexReloader interface {
	Load(ctx context.Context)
}

// RebuildHandler handles HTTP requests for triggering index rebuilds.
type RebuildHandler struct {
	builder IndexBuilder
	widget  IndexReloader
}

// NewRebuildHandler creates a new RebuildHandler.
func NewRebuildHandler(builder IndexBuilder, widget IndexReloader) *RebuildHandler {
	return &RebuildHandler{
		builder: builder,
		widget:  widget,
	}
}

// RebuildResponse represents the response from the rebuild endpoint.
type RebuildResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP handles POST /api/index. The rebuild runs in the background;
// ?force=true clears all stored records first so every post is re-parsed.
func (h *RebuildHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	if force {
		logger.InfoContext(ctx, "force index rebuild triggered via API")
	} else {
		logger.InfoContext(ctx, "index rebuild triggered via API")
	}

	// Rebuild in a goroutine so it doesn't block the HTTP response.
	// Use background context so the build continues after the request completes.
	go func() {
		buildCtx := context.Background()
		if force {
			if err := h.builder.ClearAll(buildCtx); err != nil {
				logger.ErrorContext(buildCtx, "failed to clear existing records", "error", err)
				return
			}
			logger.InfoContext(buildCtx, "cleared all indexed posts")
		}
		if err := h.builder.BuildAll(buildCtx); err != nil {
			logger.ErrorContext(buildCtx, "index rebuild completed with errors", "error", err)
		} else {
			logger.InfoContext(buildCtx, "index rebuild completed successfully")
		}
		// Pick up the fresh index file regardless; a partial build still
		// produced a valid index of the posts that parsed.
		h.widget.Load(buildCtx)
	}()

	// Return immediately with accepted status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	message := "Index rebuild started. Check server logs for progress."
	if force {
		message = "Force rebuild started (all records cleared). Check server logs for progress."
	}
	_ = json.NewEncoder(w).Encode(RebuildResponse{
		Message: message,
		Status:  "accepted",
	})
}

// writeError writes an error response.
func (h *RebuildHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
