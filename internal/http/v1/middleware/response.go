package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"competition-ledger/internal/apperrors"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindBadRequest:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err in the common error envelope. Unclassified errors
// never leak their text.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	WriteJSON(w, StatusOf(kind), ErrorResponse{
		Error: ErrorDetail{
			Code:    kind.String(),
			Message: apperrors.MessageOf(err),
		},
	})
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
