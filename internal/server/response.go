package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"folio/internal/folio"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: status < 300, Data: data})
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: code, Message: message, Details: details}})
}

// badRequest reports a malformed request that never reached the service.
func badRequest(w http.ResponseWriter, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	writeErrorBody(w, http.StatusBadRequest, "bad_request", message, details)
}

// statusFor maps a service error kind to an HTTP status.
func statusFor(kind folio.Kind) int {
	switch kind {
	case folio.KindNotFound:
		return http.StatusNotFound
	case folio.KindValidation:
		return http.StatusBadRequest
	case folio.KindForbidden, folio.KindUndetermined:
		return http.StatusForbidden
	case folio.KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. Store and blob failures are logged in
// full and reported without details.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	kind := folio.KindOf(err)
	status := statusFor(kind)
	code := kind.String()

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", code).Msg("request failed")
		writeErrorBody(w, status, code, http.StatusText(status), "")
		return
	}

	message := err.Error()
	var fe *folio.Error
	if errors.As(err, &fe) && fe.Err != nil && kind == folio.KindValidation {
		message = fe.Err.Error()
	}
	writeErrorBody(w, status, code, message, "")
}
