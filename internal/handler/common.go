package handler

import (
	"encoding/json"
	"net/http"

	"attendance/internal/dto"
)

// writeJSON marshals v to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeResult writes the standard success/message envelope.
func writeResult(w http.ResponseWriter, success bool, message string) {
	writeJSON(w, http.StatusOK, dto.Response{Success: success, Message: message})
}
