package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// mockBuilder records rebuild calls for testing
type mockBuilder struct {
	mu         sync.Mutex
	buildCalls int
	clearCalls int
	buildErr   error
	done       chan struct{}
}

func newMockBuilder() *mockBuilder {
	return &mockBuilder{done: make(chan struct{}, 2)}
}

func (m *mockBuilder) BuildAll(ctx context.Context) error {
	m.mu.Lock()
	m.buildCalls++
	err := m.buildErr
	m.mu.Unlock()
	m.done <- struct{}{}
	return err
}

func (m *mockBuilder) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	m.clearCalls++
	m.mu.Unlock()
	return nil
}

func (m *mockBuilder) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildCalls, m.clearCalls
}

// mockReloader records widget reloads
type mockReloader struct {
	mu    sync.Mutex
	loads int
}

func (m *mockReloader) Load(ctx context.Context) {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()
}

func (m *mockReloader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

func waitForBuild(t *testing.T, builder *mockBuilder) {
	t.Helper()
	select {
	case <-builder.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for background build")
	}
}

func TestRebuildHandler(t *testing.T) {
	builder := newMockBuilder()
	reloader := &mockReloader{}
	handler := NewRebuildHandler(builder, reloader)

	req := httptest.NewRequest(http.MethodPost, "/api/index", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
	}

	var resp RebuildResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "accepted" {
		t.Errorf("response status = %q, want accepted", resp.Status)
	}

	waitForBuild(t, builder)

	builds, clears := builder.counts()
	if builds != 1 {
		t.Errorf("BuildAll called %d times, want 1", builds)
	}
	if clears != 0 {
		t.Errorf("ClearAll called %d times, want 0", clears)
	}
}

func TestRebuildHandler_Force(t *testing.T) {
	builder := newMockBuilder()
	reloader := &mockReloader{}
	handler := NewRebuildHandler(builder, reloader)

	req := httptest.NewRequest(http.MethodPost, "/api/index?force=true", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
	}

	waitForBuild(t, builder)

	builds, clears := builder.counts()
	if builds != 1 || clears != 1 {
		t.Errorf("builds = %d, clears = %d, want 1 and 1", builds, clears)
	}
}

func TestRebuildHandler_ReloadsWidgetEvenOnPartialFailure(t *testing.T) {
	builder := newMockBuilder()
	builder.buildErr = errors.New("2 posts failed to parse")
	reloader := &mockReloader{}
	handler := NewRebuildHandler(builder, reloader)

	req := httptest.NewRequest(http.MethodPost, "/api/index", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	waitForBuild(t, builder)

	// The reload happens after the build; give the goroutine a moment
	deadline := time.Now().Add(2 * time.Second)
	for reloader.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reloader.count() != 1 {
		t.Errorf("widget reloaded %d times, want 1", reloader.count())
	}
}

func TestRebuildHandler_MethodNotAllowed(t *testing.T) {
	handler := NewRebuildHandler(newMockBuilder(), &mockReloader{})

	req := httptest.NewRequest(http.MethodGet, "/api/index", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
