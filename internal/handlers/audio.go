package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danschewy/townhall/internal/models"
	"github.com/danschewy/townhall/internal/pipeline"
	"github.com/danschewy/townhall/internal/rooms"
)

// AudioResponse represents the response to an utterance submission.
type AudioResponse struct {
	MessageID    string            `json:"messageId,omitempty"`
	Text         string            `json:"text,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
	Skipped      bool              `json:"skipped,omitempty"`
}

// PostAudio handles one recorded utterance: multipart form with the audio
// under `audio` plus `userId` and `language` fields.
func (h *Handler) PostAudio(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	userID := r.FormValue("userId")
	language := r.FormValue("language")
	if userID == "" || language == "" {
		h.Error(w, http.StatusBadRequest, "userId and language are required")
		return
	}
	if !models.ValidLanguage(language) {
		h.Error(w, http.StatusBadRequest, "unsupported language")
		return
	}

	exists, err := h.rooms.Exists(r.Context(), code)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	if !exists {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "failed to read audio")
		return
	}

	result, err := h.pipe.Process(r.Context(), pipeline.Utterance{
		RoomCode: code,
		UserID:   userID,
		Language: language,
		Audio:    audio,
		MimeType: header.Header.Get("Content-Type"),
	})

	var stageErr *pipeline.StageError
	switch {
	case errors.Is(err, pipeline.ErrAudioTooShort):
		h.Error(w, http.StatusUnprocessableEntity, "recording too short")
		return
	case errors.Is(err, pipeline.ErrNoSpeech):
		h.Error(w, http.StatusUnprocessableEntity, "no speech detected")
		return
	case errors.Is(err, rooms.ErrRoomNotFound):
		h.Error(w, http.StatusNotFound, "room not found")
		return
	case errors.As(err, &stageErr):
		// Details are logged by the pipeline; callers get a generic failure.
		h.Error(w, http.StatusBadGateway, "processing failed")
		return
	case err != nil:
		h.Error(w, http.StatusInternalServerError, "processing failed")
		return
	}

	h.JSON(w, http.StatusOK, AudioResponse{
		MessageID:    result.MessageID,
		Text:         result.Text,
		Translations: result.Translations,
		Skipped:      result.Skipped,
	})
}
