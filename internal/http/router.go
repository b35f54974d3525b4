package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"blogsearch/internal/handlers"
	"blogsearch/internal/search"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Widget    *search.Widget
	Builder   handlers.IndexBuilder
	DB        handlers.Pinger
	PostsDir  string
	IndexPath string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)

	// Add CORS middleware
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.Widget)
	rebuildHandler := handlers.NewRebuildHandler(deps.Builder, deps.Widget)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Widget)
	postHandler := handlers.NewPostHandler(deps.PostsDir)
	pageHandler := handlers.NewPageHandler()

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/search", searchHandler)
		r.Method(http.MethodPost, "/index", rebuildHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	// Serve the built index file for clients that filter on their own
	r.Get("/search.json", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, deps.IndexPath)
	})

	// Rendered post pages
	r.Method(http.MethodGet, "/posts/*", postHandler)

	// Search page at root
	r.Method(http.MethodGet, "/", pageHandler)

	return r
}
