// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/atelier-sec/vigil/internal/ingest"
	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
)

// UploadSummary reports what happened to one uploaded file.
type UploadSummary struct {
	FileName           string `json:"file_name"`
	Stored             int    `json:"stored"`
	Skipped            int    `json:"skipped"`
	TimestampFallbacks int    `json:"timestamp_fallbacks"`

	// Analysis is "scheduled" when records were handed to the scoring
	// pipeline, "skipped" when the file produced no records.
	Analysis string `json:"analysis"`
}

// UploadLogs ingests one CSV (optionally gzip-compressed) log file.
// Records are persisted synchronously; threat scoring runs in the
// background so large uploads return promptly.
func (h *Handler) UploadLogs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respond.PayloadTooLarge(w, r, "upload exceeds the configured size limit")
			return
		}
		h.respond.BadRequest(w, r, "multipart form must carry a 'file' part")
		return
	}
	defer file.Close()

	reader, err := ingest.NewReader(file, ingest.Options{
		UploadedBy:      analyst(r),
		FileName:        header.Filename,
		TimestampPolicy: h.timestampPolicy,
	})
	if err != nil {
		h.respond.BadRequest(w, r, err.Error())
		return
	}

	records, err := reader.ReadAll()
	if err != nil {
		h.respond.BadRequest(w, r, err.Error())
		return
	}
	stats := reader.Stats()

	if len(records) > 0 {
		if err := h.store.SaveRecords(r.Context(), records); err != nil {
			h.respond.InternalError(w, r, err)
			return
		}
	}

	metrics.RecordsIngested.Add(float64(stats.Produced))
	metrics.RecordsSkipped.Add(float64(stats.Skipped))
	metrics.TimestampFallbacks.Add(float64(stats.TimestampFallbacks))

	summary := UploadSummary{
		FileName:           header.Filename,
		Stored:             stats.Produced,
		Skipped:            stats.Skipped,
		TimestampFallbacks: stats.TimestampFallbacks,
		Analysis:           "skipped",
	}

	if len(records) > 0 {
		summary.Analysis = "scheduled"
		// Scoring outlives the request; only a server shutdown stops it.
		ctx := context.WithoutCancel(r.Context())
		go func() {
			result := h.engine.AnalyzeBatch(ctx, records, h.batchOptions)
			logging.Ctx(ctx).Info().
				Str("file", header.Filename).
				Int("succeeded", result.Succeeded()).
				Int("failed", result.Failed()).
				Msg("background analysis finished")
		}()
	}

	logging.Ctx(r.Context()).Info().
		Str("file", header.Filename).
		Str("uploaded_by", analyst(r)).
		Int("stored", summary.Stored).
		Int("skipped", summary.Skipped).
		Msg("log file ingested")
	h.respond.Accepted(w, r, summary)
}
