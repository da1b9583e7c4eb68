package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/tubecontrol/internal/player"
	"github.com/ayusman/tubecontrol/internal/store"
)

// VideoHandler serves /api/player/video: GET returns the last loaded video,
// POST loads a new one by id or link.
type VideoHandler struct {
	player player.Player
	store  *store.Store
}

// NewVideoHandler creates a VideoHandler.
func NewVideoHandler(p player.Player, s *store.Store) *VideoHandler {
	return &VideoHandler{player: p, store: s}
}

type videoRequest struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type videoResponse struct {
	ID string `json:"id"`
}

func (h *VideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPost:
		h.load(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *VideoHandler) get(w http.ResponseWriter) {
	id, err := h.store.Settings().Get(store.SettingVideoID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No video loaded")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load setting")
		return
	}
	writeJSON(w, http.StatusOK, videoResponse{ID: id})
}

func (h *VideoHandler) load(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	input := req.ID
	if input == "" {
		input = req.URL
	}
	id, err := player.ParseVideoID(input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Not a video link or id")
		return
	}

	if err := h.player.LoadVideoByID(r.Context(), id); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, player.ErrNotReady) || errors.Is(err, player.ErrDisconnected) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "Player did not load the video: "+err.Error())
		return
	}
	if err := h.store.Settings().Set(store.SettingVideoID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save video")
		return
	}
	writeJSON(w, http.StatusOK, videoResponse{ID: id})
}
