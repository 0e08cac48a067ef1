// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package scoring adapts LogRecords to the external threat scorer. The
// scorer is an opaque remote function with a fixed request/response
// contract; this package is the only component permitted to perform a
// remote call. Feature engineering is entirely the scorer's concern, so
// the request is a direct field mapping of the record.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelier-sec/vigil/internal/models"
)

// Sentinel errors. Both classify as scoring failures: recoverable at batch
// level, reported per record.
var (
	// ErrInvalidCandidate indicates the scorer returned a value outside the
	// known enumerations. An unknown threat type or severity is a failure,
	// never a silent default.
	ErrInvalidCandidate = errors.New("scorer returned an invalid candidate")

	// ErrScorerUnavailable indicates the remote scorer could not be
	// reached or the circuit breaker is open.
	ErrScorerUnavailable = errors.New("scorer unavailable")
)

// Request is the scoring request wire contract. All fields come straight
// from the LogRecord; optional fields are omitted when unknown.
type Request struct {
	SourceIP        string `json:"source_ip"`
	DestinationIP   string `json:"destination_ip,omitempty"`
	SourcePort      *int   `json:"source_port,omitempty"`
	DestinationPort *int   `json:"destination_port,omitempty"`
	Protocol        string `json:"protocol,omitempty"`
	PacketSize      *int64 `json:"packet_size,omitempty"`
	BytesSent       *int64 `json:"bytes_sent,omitempty"`
	BytesReceived   *int64 `json:"bytes_received,omitempty"`
	Duration        *int64 `json:"duration,omitempty"`
	UserAgent       string `json:"user_agent,omitempty"`
	RequestMethod   string `json:"request_method,omitempty"`
	RequestURL      string `json:"request_url,omitempty"`
	ResponseCode    *int   `json:"response_code,omitempty"`
	Country         string `json:"country,omitempty"`
	Region          string `json:"region,omitempty"`
	City            string `json:"city,omitempty"`
}

// Response is the scoring response wire contract.
type Response struct {
	ThreatType        string  `json:"threat_type"`
	Severity          string  `json:"severity"`
	ConfidenceScore   float64 `json:"confidence_score"`
	RiskScore         float64 `json:"risk_score"`
	Description       string  `json:"description"`
	RecommendedAction string  `json:"recommended_action"`
	ModelVersion      string  `json:"model_version"`
	ProcessingTimeMs  int64   `json:"processing_time_ms"`
}

// Candidate is a validated scoring result, ready to become a
// ThreatPrediction. Confidence and risk are clamped to their domains.
type Candidate struct {
	ThreatType        models.ThreatType
	Severity          models.ThreatSeverity
	ConfidenceScore   float64
	RiskScore         float64
	Description       string
	RecommendedAction string
	ModelVersion      string
	ProcessingTimeMs  int64
}

// Scorer is the pluggable scoring capability. Implementations may block;
// callers may run many Score invocations concurrently.
type Scorer interface {
	Score(ctx context.Context, rec *models.LogRecord) (*Candidate, error)
}

// BuildRequest maps a LogRecord to the scoring request. No derived
// features are computed locally.
func BuildRequest(rec *models.LogRecord) Request {
	return Request{
		SourceIP:        rec.SourceIP,
		DestinationIP:   rec.DestinationIP,
		SourcePort:      rec.SourcePort,
		DestinationPort: rec.DestinationPort,
		Protocol:        rec.Protocol,
		PacketSize:      rec.PacketSize,
		BytesSent:       rec.BytesSent,
		BytesReceived:   rec.BytesReceived,
		Duration:        rec.Duration,
		UserAgent:       rec.UserAgent,
		RequestMethod:   rec.RequestMethod,
		RequestURL:      rec.RequestURL,
		ResponseCode:    rec.ResponseCode,
		Country:         rec.Country,
		Region:          rec.Region,
		City:            rec.City,
	}
}

// ValidateResponse checks enum membership and clamps scores into their
// domains, producing a Candidate.
func ValidateResponse(resp *Response) (*Candidate, error) {
	threatType, err := models.ParseThreatType(resp.ThreatType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	severity, err := models.ParseThreatSeverity(resp.Severity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	return &Candidate{
		ThreatType:        threatType,
		Severity:          severity,
		ConfidenceScore:   clamp(resp.ConfidenceScore, 0.0, 1.0),
		RiskScore:         clamp(resp.RiskScore, 0.0, 100.0),
		Description:       resp.Description,
		RecommendedAction: resp.RecommendedAction,
		ModelVersion:      resp.ModelVersion,
		ProcessingTimeMs:  resp.ProcessingTimeMs,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
