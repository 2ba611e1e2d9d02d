// Package testutil provides testing utilities for the blitzscan application
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// StubResponse is one scripted reply of the stub scanning backend. A zero
// Status means 200.
type StubResponse struct {
	Status int
	Result string
	Delay  time.Duration
}

// StubBackend is an httptest server speaking the scanning backend protocol.
// Replies for an endpoint are served in order; the last one repeats.
type StubBackend struct {
	*httptest.Server

	mu      sync.Mutex
	scripts map[string][]StubResponse
	calls   map[string]int
	targets map[string][]string
}

func NewStubBackend(t *testing.T) *StubBackend {
	t.Helper()

	s := &StubBackend{
		scripts: make(map[string][]StubResponse),
		calls:   make(map[string]int),
		targets: make(map[string][]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

func (s *StubBackend) Script(endpoint string, responses ...StubResponse) {
	s.mu.Lock()
	s.scripts[endpoint] = responses
	s.mu.Unlock()
}

func (s *StubBackend) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// Targets returns the "objetivo" values received on endpoint, in order.
func (s *StubBackend) Targets(endpoint string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]string, len(s.targets[endpoint]))
	copy(targets, s.targets[endpoint])
	return targets
}

func (s *StubBackend) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Target string `json:"objetivo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[r.URL.Path]++
	n := s.calls[r.URL.Path]
	s.targets[r.URL.Path] = append(s.targets[r.URL.Path], body.Target)
	script := s.scripts[r.URL.Path]
	s.mu.Unlock()

	response := StubResponse{}
	if len(script) > 0 {
		response = script[min(n, len(script))-1]
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := response.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusBadRequest {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"resultado": response.Result})
}

// TempDir creates a temporary directory for testing and returns a cleanup function
func TempDir(t *testing.T, prefix string) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("Failed to clean up temp dir %s: %v", dir, err)
		}
	}

	return dir, cleanup
}

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filePath, err)
	}

	return filePath
}

// CaptureOutput captures stdout during fn.
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdout pipe: %v", err)
	}
	defer r.Close()

	orig := os.Stdout
	os.Stdout = w

	out := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(r)
		out <- string(buf)
	}()

	fn()

	os.Stdout = orig
	w.Close()

	return <-out
}

// WithTimeout creates a context with timeout for tests
func WithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}
