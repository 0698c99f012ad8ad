package hub

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ytautopub/retry"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RepoID = "someone/data"
	cfg.Retry = retry.Config{
		MaxRetries:     2,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		Multiplier:     2.0,
	}
	cfg.RequestsPerSecond = 1000
	return cfg
}

func TestDownloadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/dataset/someone/data/yttoken.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte("encrypted-bytes"))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	got, err := client.Download(context.Background(), "yttoken.json")
	if err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}
	if string(got) != "encrypted-bytes" {
		t.Errorf("Download() = %q, want %q", got, "encrypted-bytes")
	}
}

func TestDownloadNotFound(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	_, err := client.Download(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Download() returned %v, want ErrNotFound", err)
	}
	// 404 is permanent, no retries
	if requests != 1 {
		t.Errorf("server received %d requests, want 1", requests)
	}
}

func TestDownloadAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer hub-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer hub-token")
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Token = "hub-token"
	client := New(cfg)
	if _, err := client.Download(context.Background(), "x"); err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	got, err := client.Download(context.Background(), "x")
	if err != nil {
		t.Fatalf("Download() returned error: %v", err)
	}
	if string(got) != "recovered" {
		t.Errorf("Download() = %q, want %q", got, "recovered")
	}
	if requests != 3 {
		t.Errorf("server received %d requests, want 3", requests)
	}
}

func TestDownloadPermanentClientError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	_, err := client.Download(context.Background(), "x")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Download() returned %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", httpErr.StatusCode)
	}
	if requests != 1 {
		t.Errorf("server received %d requests, want 1 (4xx is permanent)", requests)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	if err := client.Upload(context.Background(), "yttoken.json", []byte("ciphertext")); err != nil {
		t.Fatalf("Upload() returned error: %v", err)
	}
	if string(received) != "ciphertext" {
		t.Errorf("server received %q, want %q", received, "ciphertext")
	}
}

func TestUploadSurfacesFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	err := client.Upload(context.Background(), "x", []byte("data"))
	if err == nil {
		t.Fatal("Upload() = nil, want error after retries exhausted")
	}
	var retryErr *retry.RetryableError
	if !errors.As(err, &retryErr) {
		t.Errorf("Upload() returned %T, want *retry.RetryableError", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	if got := parseRetryAfter(h); got != 30*time.Second {
		t.Errorf("parseRetryAfter(30) = %v, want 30s", got)
	}

	if got := parseRetryAfter(http.Header{}); got != 0 {
		t.Errorf("parseRetryAfter(empty) = %v, want 0", got)
	}
}
