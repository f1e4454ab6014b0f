package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ttsModel = "resemble-ai-chatterbox-multilingual"

// Client calls the text-to-speech service. The service answers either with
// raw audio bytes (content-type audio/* or octet-stream) or with a JSON
// envelope carrying a base64 field; both are normalized to a base64 string.
type Client struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a TTS client. Each call is bounded by timeout.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type configParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type synthesisRequest struct {
	Model       string        `json:"model"`
	Text        string        `json:"text"`
	ModelConfig []configParam `json:"model_config"`
}

// Synthesize produces speech for text in the given language.
func (c *Client) Synthesize(ctx context.Context, text, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(synthesisRequest{
		Model: ttsModel,
		Text:  text,
		ModelConfig: []configParam{
			{Name: "exaggeration", Value: "0.5"},
			{Name: "cfg_weight", Value: "0.5"},
			{Name: "language_id", Value: language},
		},
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
		return "", fmt.Errorf("tts: status %d: %s", resp.StatusCode, respBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "audio") || strings.Contains(contentType, "octet-stream") {
		return base64.StdEncoding.EncodeToString(respBody), nil
	}

	var envelope struct {
		Audio string `json:"audio"`
		Data  string `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", fmt.Errorf("tts: invalid JSON response: %w", err)
	}
	if envelope.Audio != "" {
		return envelope.Audio, nil
	}
	return envelope.Data, nil
}
