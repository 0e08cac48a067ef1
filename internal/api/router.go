// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every endpoint onto a chi router with the shared
// middleware stack.
func NewRouter(h *Handler, mw *Middleware) chi.Router {
	r := chi.NewRouter()

	r.Use(mw.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.SecurityHeaders())
	r.Use(mw.CORS())
	r.Use(mw.Metrics())

	// Probes and metrics stay outside the rate limiter so orchestration
	// traffic never trips it.
	r.Get("/health", h.Health)
	r.Get("/health/live", h.Health)
	r.Get("/health/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// promhttp negotiates its own compression, so gzip stays
		// scoped to the API group.
		r.Use(mw.Compression())

		r.Get("/health", h.Health)
		r.Get("/health/live", h.Health)
		r.Get("/health/ready", h.Ready)

		r.Route("/logs", func(r chi.Router) {
			// Uploads are expensive; a tight budget is enough for
			// legitimate batch submission.
			r.Use(mw.RateLimitCustom(10, time.Minute))
			r.Post("/upload", h.UploadLogs)
		})

		r.Route("/predictions", func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Get("/", h.ListPredictions)
			r.Get("/{id}", h.GetPrediction)
			r.Post("/{id}/false-positive", h.MarkFalsePositive)
			r.Post("/{id}/notes", h.UpdateNotes)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Get("/", h.ListAlerts)
			r.Post("/", h.CreateAlert)
			r.Get("/{id}", h.GetAlert)
			r.Post("/{id}/acknowledge", h.AcknowledgeAlert)
			r.Post("/{id}/resolve", h.ResolveAlert)
		})

		r.Get("/ws", h.WebSocket)
	})

	return r
}
