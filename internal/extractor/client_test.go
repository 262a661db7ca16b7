package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPClient_Extract_Success(t *testing.T) {
	var receivedReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download-clip" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Errorf("content-type = %q", ct)
		}

		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &receivedReq)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	err := client.Extract(context.Background(), Request{
		URL:       "https://www.youtube.com/watch?v=vid1",
		StartTime: 2,
		EndTime:   10,
		FormatID:  "best",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedReq.URL != "https://www.youtube.com/watch?v=vid1" {
		t.Errorf("url = %q", receivedReq.URL)
	}
	if receivedReq.StartTime != 2 || receivedReq.EndTime != 10 {
		t.Errorf("range = [%g, %g], want [2, 10]", receivedReq.StartTime, receivedReq.EndTime)
	}
	if receivedReq.FormatID != "best" {
		t.Errorf("format_id = %q, want best", receivedReq.FormatID)
	}
}

func TestHTTPClient_Extract_SuccessFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":false,"error":"boom"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	err := client.Extract(context.Background(), Request{URL: "u", StartTime: 0, EndTime: 1, FormatID: "best"})
	if err == nil {
		t.Fatal("expected error for success=false")
	}

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractError, got %T", err)
	}
	if extractErr.Message != "boom" {
		t.Errorf("message = %q, want boom", extractErr.Message)
	}
}

func TestHTTPClient_Extract_SuccessFalseWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	err := client.Extract(context.Background(), Request{URL: "u", StartTime: 0, EndTime: 1, FormatID: "best"})

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractError, got %T", err)
	}
	if extractErr.Message != "unknown error" {
		t.Errorf("message = %q, want unknown error", extractErr.Message)
	}
}

func TestHTTPClient_Extract_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("worker exploded"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	err := client.Extract(context.Background(), Request{URL: "u", StartTime: 0, EndTime: 1, FormatID: "best"})

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractError, got %T", err)
	}
	if extractErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", extractErr.StatusCode)
	}
	if !strings.Contains(extractErr.Message, "worker exploded") {
		t.Errorf("message = %q, want body text", extractErr.Message)
	}
}

func TestHTTPClient_Extract_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before use

	client := NewHTTPClient(server.URL, testLogger())

	err := client.Extract(context.Background(), Request{URL: "u", StartTime: 0, EndTime: 1, FormatID: "best"})
	if err == nil {
		t.Fatal("expected transport error")
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		t.Fatal("transport failures should not be ExtractError")
	}
}

func TestHTTPClient_Extract_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	err := client.Extract(context.Background(), Request{URL: "u", StartTime: 0, EndTime: 1, FormatID: "best"})

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractError, got %T", err)
	}
}
