package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"blogsearch/internal/config"
	"blogsearch/internal/http"
	"blogsearch/internal/index"
	"blogsearch/internal/posts"
	"blogsearch/internal/search"
	"blogsearch/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	postRepo := storage.NewPostRepo(db)

	// Create the index builder over the posts directory
	scanner := posts.NewScanner(cfg.PostsDir)
	parser := posts.NewParser()
	builder := index.NewBuilder(scanner, parser, postRepo, cfg.IndexPath)
	slog.Info("Index builder initialized", "posts_dir", cfg.PostsDir, "index_path", cfg.IndexPath)

	// The widget reads the index file the builder writes, unless an
	// external index URL is configured.
	var loader search.Loader
	if cfg.IndexURL != "" {
		loader = search.NewHTTPLoader(cfg.IndexURL)
		slog.Info("Search widget loads index over HTTP", "url", cfg.IndexURL)
	} else {
		loader = search.NewFileLoader(cfg.IndexPath)
	}
	widget := search.NewWidget(loader,
		search.WithMaxResults(cfg.SearchMaxResults),
		search.WithMinQueryLen(cfg.SearchMinQuery),
	)

	// Create router with dependencies
	deps := &http.Deps{
		Widget:    widget,
		Builder:   builder,
		DB:        db,
		PostsDir:  cfg.PostsDir,
		IndexPath: cfg.IndexPath,
	}
	router := http.NewRouter(deps)

	// Build the index in the background after the router is ready, then
	// load it into the widget. A failed build still loads whatever index
	// exists on disk; the widget degrades to empty rather than failing.
	go func() {
		buildCtx := context.Background()
		slog.Info("Starting background index build")
		if err := builder.BuildAll(buildCtx); err != nil {
			slog.Error("Index build completed with errors", "error", err)
		} else {
			slog.Info("Index build completed successfully")
		}
		widget.Load(buildCtx)
	}()

	// Optionally rebuild when post files change on disk
	if cfg.WatchPosts {
		watcher := index.NewWatcher(cfg.PostsDir, func(ctx context.Context) error {
			if err := builder.BuildAll(ctx); err != nil {
				return err
			}
			widget.Load(ctx)
			return nil
		})
		go func() {
			if err := watcher.Run(context.Background()); err != nil {
				slog.Error("Posts watcher stopped", "error", err)
			}
		}()
	}

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
