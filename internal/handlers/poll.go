package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danschewy/townhall/internal/metrics"
	"github.com/danschewy/townhall/internal/models"
	"github.com/danschewy/townhall/internal/rooms"
)

// Poll handles the cursor-based read path. Clients pass their last cursor as
// `since` (0 = beginning of backlog) and store the returned cursor for the
// next call; the server keeps no per-client state.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	query := r.URL.Query()
	userID := query.Get("userId")
	language := query.Get("language")
	if userID == "" || language == "" {
		h.Error(w, http.StatusBadRequest, "userId and language are required")
		return
	}
	if !models.ValidLanguage(language) {
		h.Error(w, http.StatusBadRequest, "unsupported language")
		return
	}

	var since int64
	if s := query.Get("since"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil || parsed < 0 {
			h.Error(w, http.StatusBadRequest, "invalid since value")
			return
		}
		since = parsed
	}

	result, err := h.rooms.Poll(r.Context(), code, userID, language, since)
	if errors.Is(err, rooms.ErrRoomNotFound) {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	metrics.PollRequests.Inc()
	h.JSON(w, http.StatusOK, result)
}
