package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"newsroom/internal/utils"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// WriteError writes err as a {"message": ...} response with its mapped
// HTTP status. Server errors get a generic message.
func WriteError(w http.ResponseWriter, err error) {
	appErr := utils.AsAppError(err)
	status := utils.AppErrorToHTTPStatus(appErr.Code)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", appErr.Code, "error", appErr)
		message = "Internal server error"
	}
	WriteJSON(w, status, ErrorBody{Message: message})
}
