package httpapi

import (
	"encoding/json"
	"net/http"

	"humanizerd/pkg/types"
)

// Error details returned to clients.
const (
	detailInvalidAuth = "Invalid authorization code"
	detailEmptyText   = "Text cannot be empty"
	detailTextTooLong = "Text too long (max 5000 characters)"
	detailInvalidBody = "invalid JSON body"
	detailBodyTooBig  = "request body too large"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Detail: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
