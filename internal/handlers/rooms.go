package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danschewy/townhall/internal/metrics"
	"github.com/danschewy/townhall/internal/models"
	"github.com/danschewy/townhall/internal/rooms"
)

// CreateRoomResponse represents the room creation response.
type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

// RoomResponse represents the room info response.
type RoomResponse struct {
	RoomCode string        `json:"roomCode"`
	Users    []models.User `json:"users"`
}

// JoinRequest represents the join request body.
type JoinRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// JoinResponse represents the join response.
type JoinResponse struct {
	UserID   string      `json:"userId"`
	User     models.User `json:"user"`
	RoomCode string      `json:"roomCode"`
}

// LeaveRequest represents the leave request body.
type LeaveRequest struct {
	UserID string `json:"userId"`
}

// CreateRoom handles room creation.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	code, err := h.rooms.Create(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("room creation failed")
		h.Error(w, http.StatusServiceUnavailable, "failed to create room")
		return
	}

	metrics.RoomsCreated.Inc()
	h.JSON(w, http.StatusCreated, CreateRoomResponse{RoomCode: code})
}

// GetRoom handles fetching a room's membership snapshot.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	exists, err := h.rooms.Exists(r.Context(), code)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	if !exists {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}

	users, err := h.rooms.Users(r.Context(), code)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	h.JSON(w, http.StatusOK, RoomResponse{RoomCode: rooms.Canonical(code), Users: users})
}

// Join handles a user joining a room.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = sanitizeName(req.Name)
	if req.Name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.rooms.Join(r.Context(), code, req.Name, req.Language)
	switch {
	case errors.Is(err, rooms.ErrUnsupportedLanguage):
		h.Error(w, http.StatusBadRequest, "unsupported language")
		return
	case errors.Is(err, rooms.ErrRoomNotFound):
		h.Error(w, http.StatusNotFound, "room not found")
		return
	case err != nil:
		h.Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	h.JSON(w, http.StatusOK, JoinResponse{
		UserID:   user.ID,
		User:     user,
		RoomCode: rooms.Canonical(code),
	})
}

// Leave handles a user leaving a room. Idempotent: leaving twice or leaving
// a room you never joined succeeds.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		h.Error(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.rooms.Leave(r.Context(), code, req.UserID); err != nil {
		h.Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
