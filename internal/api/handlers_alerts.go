// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/store"
)

// ListAlerts returns alerts filtered by optional status, severity and
// limit query parameters.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.alertFilterFromQuery(w, r)
	if !ok {
		return
	}

	alerts, err := h.store.ListAlerts(r.Context(), filter)
	if err != nil {
		h.respond.InternalError(w, r, err)
		return
	}
	h.respond.SuccessWithCount(w, r, alerts, len(alerts))
}

// GetAlert returns one alert by ID.
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alerts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respond.Success(w, r, alert)
}

// CreateAlert creates a custom alert without a backing prediction.
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.BadRequest(w, r, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respond.ValidationError(w, r, "invalid alert", validationDetails(err))
		return
	}

	alert, err := h.alerts.CreateCustom(r.Context(), req.Title, req.Message, models.ThreatSeverity(req.Severity), req.SourceIP)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("alert_id", alert.ID).
		Str("severity", string(alert.Severity)).
		Msg("custom alert created")
	h.respond.Created(w, r, alert)
}

// AcknowledgeAlert moves an active alert to ACKNOWLEDGED.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	var req AcknowledgeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return
		}
	}

	alert, err := h.alerts.Acknowledge(r.Context(), chi.URLParam(r, "id"), analyst(r), req.Notes)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respond.Success(w, r, alert)
}

// ResolveAlert moves an alert to RESOLVED. Resolution notes are required.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return
		}
	}

	alert, err := h.alerts.Resolve(r.Context(), chi.URLParam(r, "id"), analyst(r), req.Notes)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respond.Success(w, r, alert)
}

func (h *Handler) alertFilterFromQuery(w http.ResponseWriter, r *http.Request) (store.AlertFilter, bool) {
	var filter store.AlertFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseAlertStatus(raw)
		if err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return filter, false
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("severity"); raw != "" {
		severity, err := models.ParseThreatSeverity(raw)
		if err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return filter, false
		}
		filter.Severity = severity
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.respond.BadRequest(w, r, "limit must be a positive integer")
			return filter, false
		}
		filter.Limit = limit
	}
	return filter, true
}
