// Package townhall provides a client for the townhall voice-room API.
package townhall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

// Client is a townhall API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// apiError is the server's JSON error envelope.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) doRequest(method, path string, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, respBody)
	}

	return respBody, nil
}

// User is a room member.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	JoinedAt int64  `json:"joinedAt"`
}

// CreateRoomResponse is the response from creating a room.
type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

// CreateRoom creates a new room and returns its code.
func (c *Client) CreateRoom() (*CreateRoomResponse, error) {
	respBody, err := c.doRequest("POST", "/rooms", "application/json", nil)
	if err != nil {
		return nil, err
	}

	var resp CreateRoomResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JoinResponse is the response from joining a room.
type JoinResponse struct {
	UserID   string `json:"userId"`
	User     User   `json:"user"`
	RoomCode string `json:"roomCode"`
}

// JoinRoom joins a room with a display name and language.
func (c *Client) JoinRoom(code, name, language string) (*JoinResponse, error) {
	body, _ := json.Marshal(map[string]string{"name": name, "language": language})

	respBody, err := c.doRequest("POST", "/rooms/"+code+"/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp JoinResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LeaveRoom leaves a room. Leaving twice is not an error.
func (c *Client) LeaveRoom(code, userID string) error {
	body, _ := json.Marshal(map[string]string{"userId": userID})
	_, err := c.doRequest("POST", "/rooms/"+code+"/leave", "application/json", bytes.NewReader(body))
	return err
}

// SubmitAudioResponse is the response from submitting an utterance.
type SubmitAudioResponse struct {
	MessageID    string            `json:"messageId"`
	Text         string            `json:"text"`
	Translations map[string]string `json:"translations"`
	Skipped      bool              `json:"skipped"`
}

// SubmitAudio uploads one recorded utterance for processing.
func (c *Client) SubmitAudio(code, userID, language string, audio []byte, mimeType string) (*SubmitAudioResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if mimeType == "" {
		mimeType = "audio/webm"
	}
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="audio"; filename="audio.webm"`)
	partHeader.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	_ = mw.WriteField("userId", userID)
	_ = mw.WriteField("language", language)
	if err := mw.Close(); err != nil {
		return nil, err
	}

	respBody, err := c.doRequest("POST", "/rooms/"+code+"/audio", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}

	var resp SubmitAudioResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PollMessage is one message shaped for the polling user.
type PollMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"ts"`
	Audio      string `json:"audio"`
}

// PollResponse is the response from polling a room.
type PollResponse struct {
	Messages []PollMessage `json:"messages"`
	Users    []User        `json:"users"`
	Cursor   int64         `json:"now"`
}

// Poll fetches messages newer than since for the given user and language.
// Pass the returned Cursor as since on the next call.
func (c *Client) Poll(code, userID, language string, since int64) (*PollResponse, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("language", language)
	if since > 0 {
		query.Set("since", strconv.FormatInt(since, 10))
	}

	respBody, err := c.doRequest("GET", "/rooms/"+code+"/poll?"+query.Encode(), "", nil)
	if err != nil {
		return nil, err
	}

	var resp PollResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomResponse is the response from fetching room info.
type RoomResponse struct {
	RoomCode string `json:"roomCode"`
	Users    []User `json:"users"`
}

// GetRoom fetches a room's membership snapshot.
func (c *Client) GetRoom(code string) (*RoomResponse, error) {
	respBody, err := c.doRequest("GET", "/rooms/"+code, "", nil)
	if err != nil {
		return nil, err
	}

	var resp RoomResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
