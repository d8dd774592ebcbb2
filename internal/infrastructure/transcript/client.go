package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aidigest/internal/ports"
)

// Client talks to an external transcript service over HTTP. The service
// resolves a video id to subtitle text; a 404 means the video is confirmed
// to have no transcript, which is distinct from the service being down.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.TranscriptFetcher = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch requests the transcript for a video. ok=false with a nil error
// means the service confirmed no transcript exists.
func (c *Client) Fetch(ctx context.Context, videoID string) (string, bool, error) {
	if c.endpoint == "" {
		return "", false, fmt.Errorf("transcript client misconfigured")
	}

	body, err := json.Marshal(map[string]string{"video_id": videoID})
	if err != nil {
		return "", false, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("fetch transcript %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("transcript service returned %s for %s", resp.Status, videoID)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("decode transcript %s: %w", videoID, err)
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}
