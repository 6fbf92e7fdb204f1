package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"streamhive/internal/database"
	"streamhive/internal/logging"
)

// historyRequest is the body of POST /api/users/history.
type historyRequest struct {
	VideoID  string  `json:"videoId"`
	Progress float64 `json:"progress"`
}

// SaveHistory records or updates the authenticated account's playback
// position for one video.
func (h *Handlers) SaveHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.VideoID == "" {
		writeError(w, http.StatusBadRequest, "Please provide a video id")
		return
	}

	if _, err := h.db.GetVideo(ctx, req.VideoID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Video not found")
			return
		}
		logging.Error("Failed to look up video %s: %v", req.VideoID, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.db.UpsertHistory(ctx, user.ID, req.VideoID, req.Progress); err != nil {
		logging.Error("Failed to save history for %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "History saved"})
}

// GetHistory returns the authenticated account's watch history, most
// recent first.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	items, err := h.db.ListHistory(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to list history for %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Count: len(items), Data: items})
}
