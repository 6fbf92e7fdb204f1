package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"streamhive/internal/logging"
)

// apiResponse is the envelope every JSON endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
