// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package models

import "time"

// LogRecord is one observed network/traffic event, produced once at
// ingestion and immutable thereafter. Optional numeric fields are pointers
// so that zero and "unknown" stay distinguishable.
type LogRecord struct {
	ID string `json:"id"`

	// Network fields. SourceIP and Timestamp are always present.
	SourceIP        string    `json:"source_ip"`
	DestinationIP   string    `json:"destination_ip,omitempty"`
	SourcePort      *int      `json:"source_port,omitempty"`
	DestinationPort *int      `json:"destination_port,omitempty"`
	Protocol        string    `json:"protocol,omitempty"`
	PacketSize      *int64    `json:"packet_size,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action,omitempty"` // ALLOW, DENY, DROP
	BytesSent       *int64    `json:"bytes_sent,omitempty"`
	BytesReceived   *int64    `json:"bytes_received,omitempty"`
	Duration        *int64    `json:"duration,omitempty"` // milliseconds

	// Application-layer fields.
	UserAgent     string `json:"user_agent,omitempty"`
	RequestMethod string `json:"request_method,omitempty"`
	RequestURL    string `json:"request_url,omitempty"`
	ResponseCode  *int   `json:"response_code,omitempty"`

	// Geo fields.
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`

	// Ingestion metadata.
	UploadedBy string    `json:"uploaded_by,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`

	// TimestampFallback marks records whose event timestamp could not be
	// parsed and was substituted with the processing time. Such records
	// are suspect for date-range queries.
	TimestampFallback bool `json:"timestamp_fallback,omitempty"`
}
