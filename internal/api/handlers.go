// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/atelier-sec/vigil/internal/alerting"
	"github.com/atelier-sec/vigil/internal/engine"
	"github.com/atelier-sec/vigil/internal/ingest"
	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/scoring"
	"github.com/atelier-sec/vigil/internal/store"
	ws "github.com/atelier-sec/vigil/internal/websocket"
)

// analystHeader identifies the acting analyst on review and lifecycle
// endpoints. Absent means an unattributed action.
const analystHeader = "X-Analyst"

const defaultAnalyst = "unknown"

// Handler holds the dependencies of all HTTP endpoints.
type Handler struct {
	store    *store.Store
	engine   *engine.Engine
	alerts   *alerting.Manager
	hub      *ws.Hub
	respond  *ResponseWriter
	validate *validator.Validate

	corsOrigins     []string
	maxUploadBytes  int64
	batchOptions    engine.BatchOptions
	timestampPolicy ingest.TimestampPolicy
}

// HandlerConfig carries the tunables the handlers need from the
// server configuration.
type HandlerConfig struct {
	CORSOrigins    []string
	MaxUploadBytes int64

	// ScoringConcurrency bounds parallel scoring calls per upload.
	ScoringConcurrency int

	// TimestampPolicy is the unparseable-timestamp policy for uploads.
	TimestampPolicy ingest.TimestampPolicy
}

// NewHandler creates a Handler.
func NewHandler(st *store.Store, eng *engine.Engine, alerts *alerting.Manager, hub *ws.Hub, cfg HandlerConfig) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	if cfg.ScoringConcurrency <= 0 {
		cfg.ScoringConcurrency = 8
	}
	return &Handler{
		store:           st,
		engine:          eng,
		alerts:          alerts,
		hub:             hub,
		respond:         NewResponseWriter(),
		validate:        validator.New(),
		corsOrigins:     cfg.CORSOrigins,
		maxUploadBytes:  cfg.MaxUploadBytes,
		batchOptions:    engine.BatchOptions{Concurrency: cfg.ScoringConcurrency},
		timestampPolicy: cfg.TimestampPolicy,
	}
}

// analyst returns the acting analyst identity for the request.
func analyst(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(analystHeader)); v != "" {
		return v
	}
	return defaultAnalyst
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// validationDetails flattens validator errors into a field-to-reason map.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return details
}

// respondDomainError maps domain sentinel errors onto HTTP statuses.
// Anything unrecognized is a 500.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, alerting.ErrAlertNotFound):
		h.respond.NotFound(w, r, "alert not found")
	case errors.Is(err, engine.ErrPredictionNotFound):
		h.respond.NotFound(w, r, "prediction not found")
	case errors.Is(err, alerting.ErrTerminalState), errors.Is(err, alerting.ErrInvalidTransition):
		h.respond.Conflict(w, r, err.Error())
	case errors.Is(err, alerting.ErrNotesRequired):
		h.respond.BadRequest(w, r, err.Error())
	case errors.Is(err, scoring.ErrScorerUnavailable):
		h.respond.UpstreamError(w, r, "threat scoring service unavailable")
	default:
		h.respond.InternalError(w, r, err)
	}
}

// upgrader builds the WebSocket upgrader with origin checking against
// the configured CORS origins.
func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
}

// checkOrigin accepts browser connections from configured origins and
// non-browser clients that send no Origin header at all.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}
