package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danschewy/townhall/internal/api"
	"github.com/danschewy/townhall/internal/asr"
	"github.com/danschewy/townhall/internal/clock"
	"github.com/danschewy/townhall/internal/handlers"
	"github.com/danschewy/townhall/internal/pipeline"
	"github.com/danschewy/townhall/internal/rooms"
	"github.com/danschewy/townhall/internal/store"
	"github.com/danschewy/townhall/internal/translate"
	"github.com/danschewy/townhall/internal/tts"
)

type env struct {
	srv *httptest.Server
	clk *clock.Fake
	asr *asr.Stub
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	st := store.NewMemoryStore(clk, time.Hour, 50)
	roomSvc := rooms.NewService(st, clk)

	recognizer := &asr.Stub{Text: "hello"}
	translator := &translate.Stub{Dictionary: map[string]map[string]string{
		"es": {"hello": "hola"},
	}}
	synthesizer := &tts.Stub{}

	logger := zerolog.Nop()
	pipe := pipeline.New(roomSvc, recognizer, translator, synthesizer, clk, logger, 10)
	h := handlers.NewHandler(roomSvc, pipe, st, logger)

	router := api.NewRouter(logger, h, nil, api.RouterConfig{
		AllowedOrigins: []string{"*"},
		MaxJSONBytes:   8 << 10,
		MaxAudioBytes:  1 << 20,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &env{srv: srv, clk: clk, asr: recognizer}
}

func (e *env) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(e.srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func (e *env) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *env) createRoom(t *testing.T) string {
	t.Helper()
	resp := e.postJSON(t, "/rooms", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[handlers.CreateRoomResponse](t, resp).RoomCode
}

func (e *env) join(t *testing.T, code, name, language string) handlers.JoinResponse {
	t.Helper()
	resp := e.postJSON(t, "/rooms/"+code+"/join", handlers.JoinRequest{Name: name, Language: language})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[handlers.JoinResponse](t, resp)
}

func (e *env) postAudio(t *testing.T, code, userID, language string, audio []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="clip.webm"`)
	header.Set("Content-Type", "audio/webm")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("userId", userID))
	require.NoError(t, mw.WriteField("language", language))
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.srv.URL+"/rooms/"+code+"/audio", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestCreateRoom(t *testing.T) {
	e := newEnv(t)

	code := e.createRoom(t)
	assert.Len(t, code, 6)
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestGetRoom(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)
	e.join(t, code, "Alice", "en")

	resp := e.get(t, "/rooms/"+code)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room := decode[handlers.RoomResponse](t, resp)
	assert.Equal(t, code, room.RoomCode)
	require.Len(t, room.Users, 1)
	assert.Equal(t, "Alice", room.Users[0].Name)

	resp = e.get(t, "/rooms/ZZZZZZ")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestJoinValidation(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)

	cases := []struct {
		name string
		path string
		body handlers.JoinRequest
		want int
	}{
		{"missing name", code, handlers.JoinRequest{Language: "en"}, http.StatusBadRequest},
		{"whitespace name", code, handlers.JoinRequest{Name: "   ", Language: "en"}, http.StatusBadRequest},
		{"bad language", code, handlers.JoinRequest{Name: "Alice", Language: "xx"}, http.StatusBadRequest},
		{"missing room", "ZZZZZZ", handlers.JoinRequest{Name: "Alice", Language: "en"}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.postJSON(t, "/rooms/"+tc.path+"/join", tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestJoinCodeCaseInsensitive(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)

	joined := e.join(t, strings.ToLower(code), "Alice", "en")
	assert.Equal(t, code, joined.RoomCode)
	assert.NotEmpty(t, joined.UserID)
	assert.Equal(t, joined.UserID, joined.User.ID)
}

func TestLeave(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)
	joined := e.join(t, code, "Alice", "en")

	for i := 0; i < 2; i++ {
		resp := e.postJSON(t, "/rooms/"+code+"/leave", handlers.LeaveRequest{UserID: joined.UserID})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, "leave %d", i+1)
		resp.Body.Close()
	}

	resp := e.postJSON(t, "/rooms/"+code+"/leave", handlers.LeaveRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAudioRoundTrip(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)
	alice := e.join(t, code, "Alice", "en")
	bob := e.join(t, code, "Bob", "es")

	e.clk.Advance(time.Second)
	resp := e.postAudio(t, code, alice.UserID, "en", make([]byte, 4096))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	submitted := decode[handlers.AudioResponse](t, resp)
	assert.Equal(t, "hello", submitted.Text)
	assert.Equal(t, "hola", submitted.Translations["es"])

	// Bob polls and receives the Spanish rendition.
	pollURL := fmt.Sprintf("/rooms/%s/poll?userId=%s&language=es&since=0", code, bob.UserID)
	resp = e.get(t, pollURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	poll := decode[rooms.PollResult](t, resp)
	require.Len(t, poll.Messages, 1)
	assert.Equal(t, alice.UserID, poll.Messages[0].SenderID)
	assert.Equal(t, "Alice", poll.Messages[0].SenderName)
	assert.Equal(t, "hello", poll.Messages[0].Text)
	assert.NotEmpty(t, poll.Messages[0].Audio)
	assert.Len(t, poll.Users, 2)
	assert.Equal(t, e.clk.Now().UnixMilli(), poll.Cursor)

	// Polling again from the returned cursor yields nothing new.
	resp = e.get(t, fmt.Sprintf("/rooms/%s/poll?userId=%s&language=es&since=%d", code, bob.UserID, poll.Cursor))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decode[rooms.PollResult](t, resp)
	assert.Empty(t, again.Messages)

	// The sender never sees their own message.
	resp = e.get(t, fmt.Sprintf("/rooms/%s/poll?userId=%s&language=en&since=0", code, alice.UserID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decode[rooms.PollResult](t, resp)
	assert.Empty(t, mine.Messages)
}

func TestAudioValidation(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)
	alice := e.join(t, code, "Alice", "en")

	// Too-short recording is rejected before any upstream call.
	resp := e.postAudio(t, code, alice.UserID, "en", []byte("tiny"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
	assert.Zero(t, e.asr.Calls())

	resp = e.postAudio(t, code, alice.UserID, "xx", make([]byte, 4096))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = e.postAudio(t, "ZZZZZZ", alice.UserID, "en", make([]byte, 4096))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAudioNoSpeech(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)
	alice := e.join(t, code, "Alice", "en")

	e.asr.Text = "   "
	resp := e.postAudio(t, code, alice.UserID, "en", make([]byte, 4096))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestPollValidation(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)
	alice := e.join(t, code, "Alice", "en")

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"missing userId", "language=en", http.StatusBadRequest},
		{"missing language", "userId=" + alice.UserID, http.StatusBadRequest},
		{"bad language", "userId=" + alice.UserID + "&language=xx", http.StatusBadRequest},
		{"negative since", "userId=" + alice.UserID + "&language=en&since=-1", http.StatusBadRequest},
		{"junk since", "userId=" + alice.UserID + "&language=en&since=abc", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.get(t, "/rooms/"+code+"/poll?"+tc.query)
			assert.Equal(t, tc.want, resp.StatusCode)
			resp.Body.Close()
		})
	}

	resp := e.get(t, "/rooms/ZZZZZZ/poll?userId=u&language=en")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	resp := e.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[handlers.HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "pass", health.Checks["store"].Status)
}

func TestUnsupportedContentType(t *testing.T) {
	e := newEnv(t)
	code := e.createRoom(t)

	resp, err := http.Post(e.srv.URL+"/rooms/"+code+"/join", "text/plain", strings.NewReader("hi"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()
}

func TestSecurityHeaders(t *testing.T) {
	e := newEnv(t)

	resp := e.get(t, "/health")
	defer resp.Body.Close()
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
