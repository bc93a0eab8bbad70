package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/services"
	"tracker/internal/storage"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// validationErrors map to 422.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrInvalidFrequency,
	core.ErrInvalidInterval,
	core.ErrEndBeforeStart,
	core.ErrMissingRule,
	core.ErrEmptyDescription,
	core.ErrDescriptionLength,
	core.ErrEmptyName,
	core.ErrInvalidColor,
	core.ErrInvalidTheme,
	core.ErrZeroDate,
	services.ErrUnknownCategory,
}

// badParamErrors map to 400.
var badParamErrors = []error{
	errBadRequest,
	core.ErrInvalidPeriod,
	core.ErrInvalidYear,
	core.ErrInvalidMonth,
	services.ErrLookaheadOutOfRange,
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var fe *fieldError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	}
	for _, target := range badParamErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError logs unexpected failures and hides their details from
// the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", userIDFrom(r),
			"error", err)
		writeError(w, status, "internal server error")
		return
	}
	detail := err.Error()
	if status == http.StatusNotFound {
		detail = "not found"
	}
	writeError(w, status, detail)
}
