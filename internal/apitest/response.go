package apitest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
)

var (
	errMissingBearer = errors.New("apitest: missing bearer token")
	errForbidden     = errors.New("apitest: forbidden")
)

// errorResponse is the envelope every failing endpoint returns:
//
//	{"error": "not_found", "message": "snippet not found with id abc123"}
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sets headers and status before the body; once Encode writes,
// later header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("apitest: failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto the status codes the real API uses.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		}

		writeJSON(w, status, errorResponse{Error: errorType, Message: appErr.Message})
		return
	}

	if errors.Is(err, errForbidden) {
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: "you can only edit your own snippets",
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
