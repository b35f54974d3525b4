package storage

import (
	"context"
	"database/sql"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return db
}

func TestNewPostRepo(t *testing.T) {
	db := newTestDB(t)

	repo := NewPostRepo(db)
	if repo == nil {
		t.Fatal("NewPostRepo() returned nil")
	}
}

func TestPostRepo_GetByPath(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepo(db)

	tests := []struct {
		name    string
		setup   func()
		relPath string
		wantErr bool
		check   func(*PostRecord) bool
	}{
		{
			name: "existing post",
			setup: func() {
				post := &PostRecord{
					ID:      "test-id",
					RelPath: "k3d.md",
					Title:   "Using k3d on Ubuntu",
					URL:     "/k3d/",
					Date:    "2025-11-19",
					Content: "rootless podman cgroup delegation",
					Hash:    "abc123",
				}
				_ = repo.Upsert(context.Background(), post)
			},
			relPath: "k3d.md",
			wantErr: false,
			check: func(post *PostRecord) bool {
				return post != nil && post.ID == "test-id" && post.Title == "Using k3d on Ubuntu"
			},
		},
		{
			name:    "non-existent post",
			setup:   func() {},
			relPath: "nonexistent.md",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean up
			_, _ = db.Exec("DELETE FROM posts")

			tt.setup()

			post, err := repo.GetByPath(context.Background(), tt.relPath)

			if tt.wantErr {
				if err == nil {
					t.Errorf("GetByPath() expected error, got nil")
				}
				if err != ErrNotFound && err != nil {
					t.Errorf("GetByPath() error = %v, want ErrNotFound", err)
				}
				return
			}

			if err != nil {
				t.Errorf("GetByPath() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(post) {
				t.Error("GetByPath() result validation failed")
			}
		})
	}
}

func TestPostRepo_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepo(db)

	post := &PostRecord{
		RelPath: "semver.md",
		Title:   "Semver for web apps",
		URL:     "/semver/",
		Date:    "2025-10-20",
		Content: "calendar versioning build numbers",
		Hash:    "hash-1",
	}

	if err := repo.Upsert(context.Background(), post); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if post.ID == "" {
		t.Error("Upsert() did not generate an ID for new post")
	}
	firstID := post.ID

	// Update with new content; ID must be preserved
	updated := &PostRecord{
		RelPath: "semver.md",
		Title:   "Semver for web apps, revisited",
		URL:     "/semver/",
		Date:    "2025-10-21",
		Content: "calendar versioning build numbers and more",
		Hash:    "hash-2",
	}
	if err := repo.Upsert(context.Background(), updated); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	if updated.ID != firstID {
		t.Errorf("Upsert() ID = %q, want preserved %q", updated.ID, firstID)
	}

	got, err := repo.GetByPath(context.Background(), "semver.md")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if got.Title != "Semver for web apps, revisited" || got.Hash != "hash-2" {
		t.Errorf("Upsert() did not update record: %+v", got)
	}
}

func TestPostRepo_ListAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepo(db)

	posts := []*PostRecord{
		{RelPath: "old.md", Title: "Old", URL: "/old/", Date: "2025-01-01", Content: "old", Hash: "h1"},
		{RelPath: "new.md", Title: "New", URL: "/new/", Date: "2025-11-19", Content: "new", Hash: "h2"},
		{RelPath: "mid.md", Title: "Mid", URL: "/mid/", Date: "2025-10-20", Content: "mid", Hash: "h3"},
	}
	for _, p := range posts {
		if err := repo.Upsert(context.Background(), p); err != nil {
			t.Fatalf("Upsert(%s) error = %v", p.RelPath, err)
		}
	}

	got, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("ListAll() returned %d posts, want 3", len(got))
	}

	// Newest first
	wantOrder := []string{"new.md", "mid.md", "old.md"}
	for i, want := range wantOrder {
		if got[i].RelPath != want {
			t.Errorf("ListAll()[%d].RelPath = %q, want %q", i, got[i].RelPath, want)
		}
	}
}

func TestPostRepo_DeleteByPath(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepo(db)

	post := &PostRecord{RelPath: "gone.md", Title: "Gone", URL: "/gone/", Date: "2025-05-05", Content: "gone", Hash: "h"}
	if err := repo.Upsert(context.Background(), post); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.DeleteByPath(context.Background(), "gone.md"); err != nil {
		t.Fatalf("DeleteByPath() error = %v", err)
	}

	if _, err := repo.GetByPath(context.Background(), "gone.md"); err != ErrNotFound {
		t.Errorf("GetByPath() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting a missing path is not an error
	if err := repo.DeleteByPath(context.Background(), "missing.md"); err != nil {
		t.Errorf("DeleteByPath() on missing path error = %v", err)
	}
}

func TestPostRepo_DeleteAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepo(db)

	for _, relPath := range []string{"a.md", "b.md"} {
		post := &PostRecord{RelPath: relPath, Title: relPath, URL: "/" + relPath, Date: "2025-01-01", Content: "x", Hash: "h"}
		if err := repo.Upsert(context.Background(), post); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	if err := repo.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	got, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListAll() after DeleteAll returned %d posts, want 0", len(got))
	}
}
