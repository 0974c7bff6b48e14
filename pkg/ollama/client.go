// Package ollama scores region images against text prompts using an Ollama
// vision model.
//
// Ollama chat models do not expose embedding similarities directly, so the
// client asks the model to rate each prompt and parses the JSON it returns.
// Temperature is pinned to zero so repeated calls on the same inputs give
// the same scores.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// scorePromptTemplate instructs the model to emit one score per prompt.
const scorePromptTemplate = `You rate how well short text labels match an image.

For each label below, output a score between -1.0 and 1.0: positive when the
label matches the image content, negative when it does not.

Labels:
%s

Return JSON only, mapping every label verbatim to its score:
{"label": 0.0, ...}
No markdown, no code fences, no comments, no trailing commas.`

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama-backed score client.
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Strip any path like /api/chat; the SDK appends its own.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// Score asks the vision model to rate every prompt against the region image.
func (c *Client) Score(ctx context.Context, model, imageB64 string, prompts []string) (map[string]float64, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no prompts to score")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %v", err)
	}

	labels := make([]string, len(prompts))
	for i, p := range prompts {
		labels[i] = "- " + p
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: fmt.Sprintf(scorePromptTemplate, strings.Join(labels, "\n")),
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		Options: map[string]any{
			"temperature": 0.0,
			"seed":        0,
		},
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}
	if responseContent == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return parseScores(responseContent, prompts)
}

// parseScores extracts the per-prompt score map from the model reply.
func parseScores(raw string, prompts []string) (map[string]float64, error) {
	raw = sanitizeModelJSON(raw)

	var scores map[string]float64
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("model returned unparseable scores: %v", err)
	}

	for _, p := range prompts {
		if _, ok := scores[p]; !ok {
			return nil, fmt.Errorf("model reply missing score for %q", p)
		}
	}
	return scores, nil
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailComma   = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments, and trailing commas that
// vision models habitually wrap around JSON output.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
