// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

// CreateAlertRequest creates a custom alert not backed by a prediction.
type CreateAlertRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	Severity string `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	SourceIP string `json:"source_ip" validate:"omitempty,ip"`
}

// AcknowledgeRequest acknowledges an active alert. Notes are optional.
type AcknowledgeRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// ResolveRequest resolves an alert. Notes are mandatory; the manager
// rejects empty ones.
type ResolveRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// NotesRequest appends analyst notes to a prediction.
type NotesRequest struct {
	Notes string `json:"notes" validate:"required,max=2000"`
}

// FalsePositiveRequest marks a prediction as a false positive. Notes
// replace the default review annotation when present.
type FalsePositiveRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}
