// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package models

import "time"

// ThreatPrediction is one scoring result for exactly one LogRecord. It is
// created immutably at scoring time; only the analyst review fields are
// mutated afterwards.
type ThreatPrediction struct {
	ID          string `json:"id"`
	LogRecordID string `json:"log_record_id"`

	ThreatType ThreatType     `json:"threat_type"`
	Severity   ThreatSeverity `json:"severity"`

	// ConfidenceScore is clamped to [0.0, 1.0].
	ConfidenceScore float64 `json:"confidence_score"`

	// RiskScore is clamped to [0.0, 100.0].
	RiskScore float64 `json:"risk_score"`

	Description       string `json:"description,omitempty"`
	RecommendedAction string `json:"recommended_action,omitempty"`

	// Analyst review fields, set only after review actions.
	IsFalsePositive bool       `json:"is_false_positive"`
	AnalystNotes    string     `json:"analyst_notes,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`

	// Reported by the scorer.
	ModelVersion     string `json:"model_version,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
