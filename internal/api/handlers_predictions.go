// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-sec/vigil/internal/alerting"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/store"
)

// ListPredictions returns predictions filtered by optional threat_type,
// severity, false_positive and limit query parameters.
func (h *Handler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.predictionFilterFromQuery(w, r)
	if !ok {
		return
	}

	preds, err := h.store.ListPredictions(r.Context(), filter)
	if err != nil {
		h.respond.InternalError(w, r, err)
		return
	}
	h.respond.SuccessWithCount(w, r, preds, len(preds))
}

// GetPrediction returns one prediction by ID.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	pred, err := h.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respond.Success(w, r, pred)
}

// MarkFalsePositive records a false-positive verdict on a prediction
// and cascades it to any linked alert.
func (h *Handler) MarkFalsePositive(w http.ResponseWriter, r *http.Request) {
	var req FalsePositiveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return
		}
	}
	// Absent notes get the same fixed annotation the alert cascade uses.
	notes := req.Notes
	if notes == "" {
		notes = alerting.FalsePositiveNotes
	}

	pred, err := h.engine.MarkFalsePositive(r.Context(), chi.URLParam(r, "id"), analyst(r), notes)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respond.Success(w, r, pred)
}

// UpdateNotes replaces the analyst notes on a prediction.
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.BadRequest(w, r, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respond.ValidationError(w, r, "invalid notes", validationDetails(err))
		return
	}

	pred, err := h.engine.UpdateNotes(r.Context(), chi.URLParam(r, "id"), analyst(r), req.Notes)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respond.Success(w, r, pred)
}

func (h *Handler) predictionFilterFromQuery(w http.ResponseWriter, r *http.Request) (store.PredictionFilter, bool) {
	var filter store.PredictionFilter

	if raw := r.URL.Query().Get("threat_type"); raw != "" {
		tt, err := models.ParseThreatType(raw)
		if err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return filter, false
		}
		filter.ThreatType = tt
	}
	if raw := r.URL.Query().Get("severity"); raw != "" {
		severity, err := models.ParseThreatSeverity(raw)
		if err != nil {
			h.respond.BadRequest(w, r, err.Error())
			return filter, false
		}
		filter.Severity = severity
	}
	if raw := r.URL.Query().Get("false_positive"); raw != "" {
		fp, err := strconv.ParseBool(raw)
		if err != nil {
			h.respond.BadRequest(w, r, "false_positive must be a boolean")
			return filter, false
		}
		filter.FalsePositive = &fp
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
