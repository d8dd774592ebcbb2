package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

const digestSystemPrompt = `You are an expert AI news analyst. Create concise digests for technical AI content.

Guidelines:
- Create a compelling title (5-10 words)
- Write a 2-3 sentence summary highlighting main points
- Focus on actionable insights
- Use clear, accessible language
- Avoid marketing fluff

Output your response as JSON with "title" and "summary" fields.`

const digestContentMax = 8000

// DigestClient generates a digest title and summary for one unified item.
type DigestClient struct {
	chat chatClient
}

var _ ports.DigestGenerator = (*DigestClient)(nil)

// NewDigestClient builds a client against an OpenAI-compatible endpoint.
func NewDigestClient(endpoint, model, apiKey string) *DigestClient {
	return &DigestClient{chat: newChatClient(endpoint, model, apiKey)}
}

// Generate produces the digest-stage title and summary, which generally
// differ from the item's original title.
func (c *DigestClient) Generate(ctx context.Context, item domain.UnifiedItem) (string, string, error) {
	user := fmt.Sprintf("Create a digest for this %s content:\n\nTitle: %s\nContent: %s",
		item.SourceType, item.Title, truncate(item.Content, digestContentMax))

	reply, err := c.chat.completeJSON(ctx, digestSystemPrompt, user)
	if err != nil {
		return "", "", fmt.Errorf("generate digest %s/%s: %w", item.SourceType, item.SourceID, err)
	}

	var out struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(reply), &out); err != nil {
		return "", "", fmt.Errorf("parse digest output %s/%s: %w", item.SourceType, item.SourceID, err)
	}
	if out.Title == "" || out.Summary == "" {
		return "", "", fmt.Errorf("digest output missing title or summary for %s/%s", item.SourceType, item.SourceID)
	}
	return out.Title, out.Summary, nil
}
