// Package clipserver talks to a CLIP embedding server over HTTP.
//
// The server exposes a single scoring endpoint: it embeds the region image
// and every prompt, and returns the cosine similarity between the image
// embedding and each text embedding. Scores are raw signed values.
package clipserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for a CLIP scoring server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type scoreRequest struct {
	Model   string   `json:"model,omitempty"`
	Image   string   `json:"image"`
	Prompts []string `json:"prompts"`
}

type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
	Error  string             `json:"error,omitempty"`
}

// NewClient creates a client for the given server URL.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8090"
	}
	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// Score sends the region image and prompts to the server and returns one
// similarity value per prompt.
func (c *Client) Score(ctx context.Context, model, imageB64 string, prompts []string) (map[string]float64, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no prompts to score")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
	}

	body, err := json.Marshal(scoreRequest{Model: model, Image: imageB64, Prompts: prompts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read score response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed scoreResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("score server error: %s", parsed.Error)
	}

	for _, p := range prompts {
		if _, ok := parsed.Scores[p]; !ok {
			return nil, fmt.Errorf("score response missing prompt %q", p)
		}
	}
	return parsed.Scores, nil
}
