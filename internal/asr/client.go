package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// mimeToExt maps recorder MIME types to the filename extension the STT
// service expects. Unknown types fall back to webm.
var mimeToExt = map[string]string{
	"audio/webm":             "webm",
	"audio/webm;codecs=opus": "webm",
	"audio/mp4":              "m4a",
	"audio/mpeg":             "mp3",
	"audio/wav":              "wav",
}

// Client calls the speech-to-text service over HTTP: a multipart POST with
// the audio under a `file` part, Bearer auth, JSON response. The transcript
// may arrive under several key names depending on the deployed model.
type Client struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates an STT client. Each call is bounded by timeout.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Transcribe sends the audio for transcription and returns the raw text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ext, ok := mimeToExt[mimeType]
	if !ok {
		ext = "webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "audio."+ext)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

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
		return "", fmt.Errorf("stt: status %d: %s", resp.StatusCode, respBody)
	}

	// Deployed models differ on the transcript key name.
	var payload struct {
		Text          string `json:"text"`
		Transcription string `json:"transcription"`
		Transcript    string `json:"transcript"`
		Result        string `json:"result"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("stt: invalid JSON response: %w", err)
	}

	for _, text := range []string{payload.Text, payload.Transcription, payload.Transcript, payload.Result} {
		if text != "" {
			return text, nil
		}
	}
	return "", nil
}
