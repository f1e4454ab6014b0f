package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danschewy/townhall/internal/models"
)

// Client translates text through a chat-completion endpoint: a system prompt
// names the source and target languages, the user message carries the text.
type Client struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a translation client. Each call is bounded by timeout.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate converts text into targetLang. Same-language requests return the
// input unchanged without a network call.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	systemPrompt := fmt.Sprintf(
		"You are a translator. Translate the following text from %s into %s. Output ONLY the translation, no preamble, no explanation, no quotes.",
		models.LanguageName(sourceLang), models.LanguageName(targetLang),
	)

	payload, err := json.Marshal(completionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("translate: status %d: %s", resp.StatusCode, respBody)
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("translate: invalid JSON response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return text, nil
	}

	translated := strings.TrimSpace(completion.Choices[0].Message.Content)
	if translated == "" {
		return text, nil
	}
	return translated, nil
}
