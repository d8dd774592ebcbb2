package transcript

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func transcriptServer(t *testing.T, handler func(videoID string, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			VideoID string `json:"video_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(req.VideoID, w)
	}))
}

func TestFetchResolvesTranscript(t *testing.T) {
	t.Parallel()

	server := transcriptServer(t, func(videoID string, w http.ResponseWriter) {
		if videoID != "v1" {
			t.Errorf("unexpected video id %q", videoID)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  spoken words  "})
	})
	defer server.Close()

	text, ok, err := NewClient(server.URL, "key").Fetch(context.Background(), "v1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !ok || text != "spoken words" {
		t.Fatalf("expected trimmed transcript, got %q (ok=%v)", text, ok)
	}
}

func TestFetchConfirmedMissing(t *testing.T) {
	t.Parallel()

	server := transcriptServer(t, func(videoID string, w http.ResponseWriter) {
		http.NotFound(w, nil)
	})
	defer server.Close()

	text, ok, err := NewClient(server.URL, "").Fetch(context.Background(), "v1")
	if err != nil {
		t.Fatalf("404 is not an error: %v", err)
	}
	if ok || text != "" {
		t.Fatalf("expected confirmed-missing, got %q (ok=%v)", text, ok)
	}
}

func TestFetchEmptyTextIsMissing(t *testing.T) {
	t.Parallel()

	server := transcriptServer(t, func(videoID string, w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	})
	defer server.Close()

	_, ok, err := NewClient(server.URL, "").Fetch(context.Background(), "v1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ok {
		t.Fatalf("blank transcript must count as missing")
	}
}

func TestFetchServiceFailure(t *testing.T) {
	t.Parallel()

	server := transcriptServer(t, func(videoID string, w http.ResponseWriter) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	defer server.Close()

	_, _, err := NewClient(server.URL, "").Fetch(context.Background(), "v1")
	if err == nil {
		t.Fatalf("5xx must surface as an error so the item stays pending")
	}
}

func TestFetchUnconfigured(t *testing.T) {
	t.Parallel()

	_, _, err := NewClient("", "").Fetch(context.Background(), "v1")
	if err == nil {
		t.Fatalf("missing endpoint must be an error")
	}
}
