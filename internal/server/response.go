package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

type result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondOK(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, result{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, result{Error: message})
}

// statusFor maps storage errors onto HTTP status codes. Anything
// unrecognised is an infrastructure failure.
func statusFor(err error) int {
	var (
		validation *storage.ValidationError
		denial     *storage.DenialError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnauthorized), errors.Is(err, storage.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrListingNotFound):
		return http.StatusNotFound
	case errors.As(err, &denial):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) failure(w http.ResponseWriter, operation string, err error, data interface{}) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		metrics.OperationErrorsTotal.WithLabelValues(operation).Inc()
		s.logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	}
	respondJSON(w, status, result{Data: data, Error: err.Error()})
}
