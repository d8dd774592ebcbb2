package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

const curatorSystemPrompt = `You are an expert AI news curator. Rank articles based on the user's profile.

Scoring Guidelines:
- 9.0-10.0: Highly relevant to user's interests
- 7.0-8.9: Very relevant
- 5.0-6.9: Moderately relevant
- 3.0-4.9: Somewhat relevant
- 0.0-2.9: Low relevance

Output as JSON with an "articles" array. Each element must have: digest_id, relevance_score (0.0-10.0), rank (1 = most relevant), reasoning.`

// Profile describes the reader the curator ranks for.
type Profile struct {
	Name        string
	Background  string
	Expertise   string
	Interests   []string
	Preferences map[string]string
}

// CuratorClient ranks recent digests against a reader profile.
type CuratorClient struct {
	chat    chatClient
	profile Profile
}

var _ ports.Curator = (*CuratorClient)(nil)

// NewCuratorClient builds a client against an OpenAI-compatible endpoint.
func NewCuratorClient(endpoint, model, apiKey string, profile Profile) *CuratorClient {
	return &CuratorClient{chat: newChatClient(endpoint, model, apiKey), profile: profile}
}

// Rank scores and orders the given digests for the configured reader.
func (c *CuratorClient) Rank(ctx context.Context, digests []domain.DigestRecord) ([]domain.RankedDigest, error) {
	if len(digests) == 0 {
		return nil, nil
	}

	reply, err := c.chat.completeJSON(ctx, curatorSystemPrompt, c.buildPrompt(digests))
	if err != nil {
		return nil, fmt.Errorf("rank digests: %w", err)
	}

	var out struct {
		Articles []struct {
			DigestID       string  `json:"digest_id"`
			RelevanceScore float64 `json:"relevance_score"`
			Rank           int     `json:"rank"`
			Reasoning      string  `json:"reasoning"`
		} `json:"articles"`
	}
	if err := json.Unmarshal([]byte(reply), &out); err != nil {
		return nil, fmt.Errorf("parse curator output: %w", err)
	}

	ranked := make([]domain.RankedDigest, 0, len(out.Articles))
	for _, a := range out.Articles {
		ranked = append(ranked, domain.RankedDigest{
			DigestID:  a.DigestID,
			Score:     a.RelevanceScore,
			Rank:      a.Rank,
			Reasoning: a.Reasoning,
		})
	}
	return ranked, nil
}

func (c *CuratorClient) buildPrompt(digests []domain.DigestRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Profile:\nName: %s\nBackground: %s\nExpertise: %s\n",
		c.profile.Name, c.profile.Background, c.profile.Expertise)

	b.WriteString("\nInterests:\n")
	for _, interest := range c.profile.Interests {
		fmt.Fprintf(&b, "- %s\n", interest)
	}

	b.WriteString("\nPreferences:\n")
	for key, value := range c.profile.Preferences {
		fmt.Fprintf(&b, "- %s: %s\n", key, value)
	}

	fmt.Fprintf(&b, "\nRank these %d articles:\n", len(digests))
	for _, d := range digests {
		fmt.Fprintf(&b, "\nID: %s\nTitle: %s\nSummary: %s\nType: %s\n",
			d.ID, d.Title, d.Summary, d.SourceType)
	}
	return b.String()
}
