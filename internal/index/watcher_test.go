package index

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{
			name:  "markdown write",
			event: fsnotify.Event{Name: "posts/2025/k3d.md", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "markdown create",
			event: fsnotify.Event{Name: "posts/new.md", Op: fsnotify.Create},
			want:  true,
		},
		{
			name:  "markdown remove",
			event: fsnotify.Event{Name: "posts/old.md", Op: fsnotify.Remove},
			want:  true,
		},
		{
			name:  "directory rename",
			event: fsnotify.Event{Name: "posts/2025", Op: fsnotify.Rename},
			want:  true,
		},
		{
			name:  "chmod only",
			event: fsnotify.Event{Name: "posts/k3d.md", Op: fsnotify.Chmod},
			want:  false,
		},
		{
			name:  "editor swap file",
			event: fsnotify.Event{Name: "posts/.k3d.md.swp", Op: fsnotify.Write},
			want:  false,
		},
		{
			name:  "image write",
			event: fsnotify.Event{Name: "posts/diagram.png", Op: fsnotify.Write},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "2025"), 0755); err != nil {
		t.Fatal(err)
	}

	var rebuilds atomic.Int32
	built := make(chan struct{}, 4)
	w := NewWatcher(root, func(ctx context.Context) error {
		rebuilds.Add(1)
		built <- struct{}{}
		return nil
	})
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Give the watcher a moment to establish its watches
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "2025", "post.md"), []byte("# Post\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-built:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not rebuild after markdown change")
	}

	if got := rebuilds.Load(); got < 1 {
		t.Fatalf("rebuilds = %d, want at least 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
