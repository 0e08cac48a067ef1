// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline: ingestion, scoring, prediction, alert lifecycle, and live push.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics.
	RecordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_records_ingested_total",
			Help: "Total number of log records accepted at ingestion",
		},
	)

	RecordsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_records_skipped_total",
			Help: "Total number of rows discarded during normalization",
		},
	)

	TimestampFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_timestamp_fallbacks_total",
			Help: "Total number of records whose timestamp fell back to processing time",
		},
	)

	// Scoring metrics.
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_scoring_duration_seconds",
			Help:    "Duration of external scoring calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScoringFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_scoring_failures_total",
			Help: "Total number of failed scoring calls",
		},
	)

	// Prediction metrics.
	PredictionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_predictions_created_total",
			Help: "Total number of threat predictions persisted",
		},
		[]string{"threat_type", "severity"},
	)

	// Alert lifecycle metrics.
	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"severity"},
	)

	AlertTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_alert_transitions_total",
			Help: "Total number of alert state transitions",
		},
		[]string{"to_status"},
	)

	StaleAlertsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_stale_alerts_resolved_total",
			Help: "Total number of alerts auto-resolved by the stale sweep",
		},
	)

	// Live push metrics.
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_websocket_clients",
			Help: "Current number of connected websocket clients",
		},
	)

	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_notifications_published_total",
			Help: "Total number of alert notifications published",
		},
		[]string{"topic"},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_notification_failures_total",
			Help: "Total number of notification publish failures (best effort, logged only)",
		},
	)

	// HTTP metrics.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
