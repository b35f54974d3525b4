package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"blogsearch/internal/contextutil"
)

// PostHandler serves markdown posts as rendered HTML pages.
type PostHandler struct {
	postsDir string
	parser   goldmark.Markdown
	template *template.Template
}

// postPageData holds template data for rendered post pages.
type postPageData struct {
	Title   string
	RelPath string
	Content template.HTML
}

// NewPostHandler creates a new handler for serving post files from the posts root.
func NewPostHandler(postsDir string) *PostHandler {
	tmpl := template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.2);
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      color: #fff;
      font-size: 2rem;
    }
    article h2, article h3, article h4 {
      color: #c7d2fe;
      margin-top: 1.5rem;
    }
    pre {
      background: #0f172a;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 10px;
      border: 1px solid rgba(99, 102, 241, 0.2);
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: rgba(99, 102, 241, 0.18);
      padding: 2px 5px;
      border-radius: 6px;
      color: #cbd5ff;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    blockquote {
      border-left: 4px solid rgba(96, 165, 250, 0.6);
      padding-left: 1rem;
      margin-left: 0;
      color: #93c5fd;
    }
    a {
      color: #60a5fa;
      text-decoration: none;
    }
    a:hover {
      text-decoration: underline;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.RelPath}} &middot; <a href="/">search</a></p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &PostHandler{
		postsDir: postsDir,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the requested post file as HTML. The path may omit the
// .md extension, so rendered posts are reachable at their index URLs.
func (h *PostHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	rawRelPath := chi.URLParam(r, "*")
	decodedRelPath, err := url.PathUnescape(rawRelPath)
	if err != nil {
		http.Error(w, "invalid path encoding", http.StatusBadRequest)
		return
	}

	relPath, err := cleanRelPath(decodedRelPath)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	if filepath.Ext(relPath) != ".md" {
		relPath = strings.TrimSuffix(relPath, "/") + ".md"
	}

	absPath, err := buildAbsPath(h.postsDir, relPath)
	if err != nil {
		logger.WarnContext(ctx, "invalid post path", "rel_path", relPath, "error", err)
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to read post", "path", absPath, "error", err)
		http.Error(w, "failed to read post", http.StatusInternalServerError)
		return
	}

	htmlContent, err := h.renderMarkdown(stripFrontMatter(data))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "path", absPath, "error", err)
		http.Error(w, "failed to render post", http.StatusInternalServerError)
		return
	}

	pageData := postPageData{
		Title:   inferTitle(relPath),
		RelPath: relPath,
		Content: template.HTML(htmlContent),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute post template", "path", absPath, "error", err)
	}
}

func (h *PostHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// stripFrontMatter drops the YAML metadata block so it doesn't render as
// a definition list or stray thematic break.
func stripFrontMatter(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("---")) {
		return data
	}
	rest := data[3:]
	newline := bytes.IndexByte(rest, '\n')
	if newline == -1 || len(bytes.TrimSpace(rest[:newline])) != 0 {
		return data
	}
	rest = rest[newline+1:]
	end := bytes.Index(rest, []byte("\n---"))
	if end == -1 {
		return data
	}
	body := rest[end+len("\n---"):]
	if nl := bytes.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		body = nil
	}
	return body
}

func cleanRelPath(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("empty path")
	}

	cleaned := path.Clean("/" + trimmed)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", errors.New("invalid path")
	}

	for _, segment := range strings.Split(cleaned, "/") {
		if segment == ".." {
			return "", errors.New("path traversal detected")
		}
	}

	return cleaned, nil
}

func buildAbsPath(root, rel string) (string, error) {
	root = filepath.Clean(root)
	relFS := filepath.FromSlash(rel)
	abs := filepath.Join(root, relFS)

	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) && abs != root {
		return "", errors.New("path escapes posts root")
	}
	return abs, nil
}

func inferTitle(rel string) string {
	base := filepath.Base(rel)
	if base == "." || base == "" {
		return "Post"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
