package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIURL is the Gemini generateContent endpoint used when the config
// does not override it.
const DefaultAPIURL = "https://generativelanguage.googleapis.com/v1/models/gemini-pro:generateContent"

// ErrEmptyAnswer is returned when the API responds without any candidate text.
var ErrEmptyAnswer = errors.New("assistant returned no answer")

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewGeminiClient builds a client for the given API key. An empty apiURL
// falls back to DefaultAPIURL.
func NewGeminiClient(apiKey, apiURL string) *GeminiClient {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &GeminiClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the question and returns the first candidate's text.
func (g *GeminiClient) Generate(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: question}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"?key="+g.apiKey, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, body)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	for _, candidate := range decoded.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", ErrEmptyAnswer
}
