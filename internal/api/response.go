// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/atelier-sec/vigil/internal/logging"
)

// APIResponse is the envelope every JSON endpoint writes.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// APIMeta carries response metadata such as result counts.
type APIMeta struct {
	Count     int    `json:"count,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes returned in APIError.Code.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// ResponseWriter writes APIResponse envelopes. One shared instance is
// enough; it holds no per-request state.
type ResponseWriter struct{}

// NewResponseWriter creates a ResponseWriter.
func NewResponseWriter() *ResponseWriter {
	return &ResponseWriter{}
}

// Success writes a 200 with the given payload.
func (rw *ResponseWriter) Success(w http.ResponseWriter, r *http.Request, data interface{}) {
	rw.write(w, r, http.StatusOK, APIResponse{Success: true, Data: data})
}

// SuccessWithCount writes a 200 with the payload and a count in Meta.
func (rw *ResponseWriter) SuccessWithCount(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	rw.write(w, r, http.StatusOK, APIResponse{Success: true, Data: data, Meta: &APIMeta{Count: count}})
}

// Created writes a 201 with the given payload.
func (rw *ResponseWriter) Created(w http.ResponseWriter, r *http.Request, data interface{}) {
	rw.write(w, r, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// Accepted writes a 202 with the given payload.
func (rw *ResponseWriter) Accepted(w http.ResponseWriter, r *http.Request, data interface{}) {
	rw.write(w, r, http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// BadRequest writes a 400.
func (rw *ResponseWriter) BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	rw.writeError(w, r, http.StatusBadRequest, CodeBadRequest, message, nil)
}

// ValidationError writes a 400 with per-field details.
func (rw *ResponseWriter) ValidationError(w http.ResponseWriter, r *http.Request, message string, details interface{}) {
	rw.writeError(w, r, http.StatusBadRequest, CodeValidationFailed, message, details)
}

// NotFound writes a 404.
func (rw *ResponseWriter) NotFound(w http.ResponseWriter, r *http.Request, message string) {
	rw.writeError(w, r, http.StatusNotFound, CodeNotFound, message, nil)
}

// Conflict writes a 409.
func (rw *ResponseWriter) Conflict(w http.ResponseWriter, r *http.Request, message string) {
	rw.writeError(w, r, http.StatusConflict, CodeConflict, message, nil)
}

// PayloadTooLarge writes a 413.
func (rw *ResponseWriter) PayloadTooLarge(w http.ResponseWriter, r *http.Request, message string) {
	rw.writeError(w, r, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message, nil)
}

// InternalError writes a 500. The underlying error is logged, never
// surfaced to the client.
func (rw *ResponseWriter) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).
		Msg("internal error")
	rw.writeError(w, r, http.StatusInternalServerError, CodeInternalError, "internal server error", nil)
}

// UpstreamError writes a 502 for failures of an external dependency.
func (rw *ResponseWriter) UpstreamError(w http.ResponseWriter, r *http.Request, message string) {
	rw.writeError(w, r, http.StatusBadGateway, CodeUpstreamError, message, nil)
}

// Unavailable writes a 503.
func (rw *ResponseWriter) Unavailable(w http.ResponseWriter, r *http.Request, message string) {
	rw.writeError(w, r, http.StatusServiceUnavailable, CodeUnavailable, message, nil)
}

func (rw *ResponseWriter) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	rw.write(w, r, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

func (rw *ResponseWriter) write(w http.ResponseWriter, r *http.Request, status int, resp APIResponse) {
	if id := logging.RequestIDFromContext(r.Context()); id != "" {
		if resp.Meta == nil {
			resp.Meta = &APIMeta{}
		}
		resp.Meta.RequestID = id
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
