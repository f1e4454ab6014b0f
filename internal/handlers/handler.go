package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/danschewy/townhall/internal/pipeline"
	"github.com/danschewy/townhall/internal/rooms"
	"github.com/danschewy/townhall/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	rooms  *rooms.Service
	pipe   *pipeline.Pipeline
	store  store.RoomStore
	logger zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(roomSvc *rooms.Service, pipe *pipeline.Pipeline, st store.RoomStore, logger zerolog.Logger) *Handler {
	return &Handler{rooms: roomSvc, pipe: pipe, store: st, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeName trims and limits a display name to 100 characters, removing
// control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
