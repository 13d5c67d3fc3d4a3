// Package insight talks to the text-insight collaborator that writes the
// optional AI commentary on a log entry. Callers must treat failures as
// degradable: an error never blocks saving the entry.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"doodoologserver/internal/domain"
)

const defaultModel = "gemini-2.5-flash"

type GeminiClient struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Generate(ctx context.Context, t domain.BristolType, notes string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", fmt.Errorf("gemini api key required")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(t, notes)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal insight payload: %w", err)
	}

	model := c.Model
	if model == "" {
		model = defaultModel
	}
	base := c.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com"
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, model, url.QueryEscape(c.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("insight request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read insight response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insight request failed: status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode insight response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty insight response")
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

func buildPrompt(t domain.BristolType, notes string) string {
	var b strings.Builder
	b.WriteString("You are a humorous but helpful health companion.\n")
	b.WriteString("The user just logged a bowel movement.\n\n")
	fmt.Fprintf(&b, "Bristol stool scale type: %d\n", int(t))
	fmt.Fprintf(&b, "User notes: %q\n\n", notes)
	b.WriteString("Reply with a very short (max 2 sentences) witty comment about this entry. ")
	b.WriteString("If the type indicates constipation (1-2) or diarrhea (6-7), gently suggest water or fiber. ")
	b.WriteString("If it's ideal (3-4), congratulate them. Do not give serious medical advice.")
	return b.String()
}
