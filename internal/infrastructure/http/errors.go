package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	coreecf "3tcapital/ms_ecf_core/internal/core/ecf"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Message  string   `json:"message"`
	Errors   []string `json:"errors"`
	Kind     string   `json:"kind,omitempty"`
	Field    string   `json:"field,omitempty"`
	TypeCode int      `json:"typeCode,omitempty"`
}

// WriteError writes a standardized JSON error response to the HTTP response writer.
// It sets the appropriate Content-Type header, status code, and encodes the error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	writeErrorResponse(w, statusCode, ErrorResponse{Message: message, Errors: errors}, log)
}

// WriteBuildError maps an e-CF build error to its response. Input faults are
// 400 with the offending field; anything else is a 500 that hides the cause.
func WriteBuildError(w http.ResponseWriter, err error, log *slog.Logger) {
	if !coreecf.IsClientError(err) {
		writeErrorResponse(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Error Interno del Servidor",
			Errors:  []string{"Ha ocurrido un error interno al generar el documento"},
			Kind:    coreecf.KindOf(err),
		}, log)
		return
	}

	response := ErrorResponse{
		Message: "Error de Validación",
		Errors:  []string{err.Error()},
		Kind:    coreecf.KindOf(err),
	}
	var buildErr *coreecf.BuildError
	if errors.As(err, &buildErr) {
		response.Field = buildErr.Path
		response.TypeCode = buildErr.TypeCode
	}
	writeErrorResponse(w, http.StatusBadRequest, response, log)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Error("failed to encode response", "error", err)
	}
}

// WriteXML writes an already serialized XML document.
func WriteXML(w http.ResponseWriter, statusCode int, body []byte, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil && log != nil {
		log.Error("failed to write XML response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		// If encoding fails, log the error but don't try to write again
		// as the status code has already been written
		if log != nil {
			log.Error("failed to encode error response", "error", err)
		}
	}
}
