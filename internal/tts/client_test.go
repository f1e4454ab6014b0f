package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeRawAudioResponse(t *testing.T) {
	var gotReq synthesisRequest
	audio := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00, 0x01}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "audio/wav")
		w.Write(audio)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 5*time.Second)
	out, err := c.Synthesize(context.Background(), "hola", "es")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(audio), out)

	assert.Equal(t, ttsModel, gotReq.Model)
	assert.Equal(t, "hola", gotReq.Text)
	require.Len(t, gotReq.ModelConfig, 3)
	assert.Equal(t, configParam{Name: "exaggeration", Value: "0.5"}, gotReq.ModelConfig[0])
	assert.Equal(t, configParam{Name: "cfg_weight", Value: "0.5"}, gotReq.ModelConfig[1])
	assert.Equal(t, configParam{Name: "language_id", Value: "es"}, gotReq.ModelConfig[2])
}

func TestSynthesizeOctetStreamResponse(t *testing.T) {
	audio := []byte("binary-audio")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(audio)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 5*time.Second)
	out, err := c.Synthesize(context.Background(), "hello", "en")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(audio), out)
}

func TestSynthesizeJSONEnvelope(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("wav-bytes"))

	for _, body := range []string{
		`{"audio":"` + encoded + `"}`,
		`{"data":"` + encoded + `"}`,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))

		c := NewClient(srv.URL, "k", 5*time.Second)
		out, err := c.Synthesize(context.Background(), "hello", "en")
		srv.Close()

		require.NoError(t, err)
		assert.Equal(t, encoded, out, "body %s", body)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad voice", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 5*time.Second)
	_, err := c.Synthesize(context.Background(), "hello", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
