package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newPostRouter(t *testing.T) (chi.Router, string) {
	t.Helper()
	postsDir := t.TempDir()
	r := chi.NewRouter()
	r.Handle("/posts/*", NewPostHandler(postsDir))
	return r, postsDir
}

func TestPostHandler_RendersMarkdown(t *testing.T) {
	router, postsDir := newPostRouter(t)

	raw := "---\ntitle: Using k3d on Ubuntu\ndate: 2025-11-19\n---\n# Using k3d on Ubuntu\n\nRun `k3d cluster create` under **rootless podman**.\n"
	if err := os.WriteFile(filepath.Join(postsDir, "k3d.md"), []byte(raw), 0644); err != nil {
		t.Fatalf("failed to write post: %v", err)
	}

	for _, path := range []string{"/posts/k3d.md", "/posts/k3d"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
			continue
		}
		body := w.Body.String()
		if !strings.Contains(body, "<strong>rootless podman</strong>") {
			t.Errorf("GET %s body missing rendered markdown: %q", path, body)
		}
		if strings.Contains(body, "date: 2025-11-19") {
			t.Errorf("GET %s body leaks front matter: %q", path, body)
		}
	}
}

func TestPostHandler_NotFound(t *testing.T) {
	router, _ := newPostRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/posts/missing.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPostHandler_PathTraversal(t *testing.T) {
	router, postsDir := newPostRouter(t)

	// A file outside the posts root that must stay unreachable
	outside := filepath.Join(filepath.Dir(postsDir), "secret.md")
	if err := os.WriteFile(outside, []byte("# Secret"), 0644); err != nil {
		t.Fatalf("failed to write outside file: %v", err)
	}

	for _, path := range []string{
		"/posts/../secret.md",
		"/posts/%2e%2e/secret.md",
		"/posts/a/../../secret.md",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code == http.StatusOK && strings.Contains(w.Body.String(), "Secret") {
			t.Errorf("GET %s leaked file outside the posts root", path)
		}
	}
}

func TestPostHandler_NestedPath(t *testing.T) {
	router, postsDir := newPostRouter(t)

	nested := filepath.Join(postsDir, "2025", "semver.md")
	if err := os.MkdirAll(filepath.Dir(nested), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(nested, []byte("# Semver for web apps\n"), 0644); err != nil {
		t.Fatalf("failed to write post: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/posts/2025/semver", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Semver for web apps") {
		t.Errorf("body missing post title: %q", w.Body.String())
	}
}
