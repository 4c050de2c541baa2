package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cabewaldrop/rowdb/internal/logging"
)

func TestServerIndex(t *testing.T) {
	srv := NewServer(":0", nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("Failed to GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "text/html; charset=utf-8" {
		t.Errorf("Expected Content-Type 'text/html; charset=utf-8', got %q", contentType)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "/api/rows") {
		t.Error("Expected index to list the API routes")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(":0", nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("Expected body 'ok', got %q", string(body))
	}
}

func TestServerRecovery(t *testing.T) {
	srv := NewServer(":0", nil)

	// Add a route that panics
	srv.router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/panic")
	if err != nil {
		t.Fatalf("Failed to GET /panic: %v", err)
	}
	defer resp.Body.Close()

	// chi's Recoverer middleware returns 500 on panic
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after panic, got %d", resp.StatusCode)
	}
}

func TestServer404(t *testing.T) {
	srv := NewServer(":0", nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("Failed to GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestServerRequestID(t *testing.T) {
	srv := NewServer(":0", nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to GET /health: %v", err)
	}
	resp.Body.Close()

	if resp.Header.Get(logging.RequestIDHeader) == "" {
		t.Error("Expected a generated request id header")
	}

	req, _ := http.NewRequest("GET", ts.URL+"/health", nil)
	req.Header.Set(logging.RequestIDHeader, "client-chosen")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to GET /health: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get(logging.RequestIDHeader); got != "client-chosen" {
		t.Errorf("Expected request id to be echoed, got %q", got)
	}
}

func TestServerRunShutsDownOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServerRunReportsListenError(t *testing.T) {
	srv := NewServer("127.0.0.1:99999", nil)

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected a listen error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not report the listen error")
	}
}
