// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package models

import "time"

// Alert is one notifiable incident. Derived alerts link back to the
// prediction that spawned them; custom alerts have no link. Status moves
// monotonically through the lifecycle state machine and alerts are never
// physically deleted.
type Alert struct {
	ID string `json:"id"`

	// PredictionID links a derived alert to its source prediction.
	// Empty for custom alerts.
	PredictionID string `json:"prediction_id,omitempty"`

	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Severity ThreatSeverity `json:"severity"`
	Status   AlertStatus    `json:"status"`

	SourceIP        string `json:"source_ip,omitempty"`
	AffectedSystems string `json:"affected_systems,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Set exactly once, at the transition into the respective state.
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`

	ResolutionNotes string `json:"resolution_notes,omitempty"`
}
