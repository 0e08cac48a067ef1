// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package scoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/atelier-sec/vigil/internal/models"
)

func testRecord() *models.LogRecord {
	port := 443
	bytesSent := int64(2048)
	return &models.LogRecord{
		ID:              "rec-1",
		SourceIP:        "10.0.0.5",
		DestinationIP:   "192.168.1.1",
		DestinationPort: &port,
		Protocol:        "TCP",
		BytesSent:       &bytesSent,
		Timestamp:       time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestBuildRequestMapsFieldsDirectly(t *testing.T) {
	rec := testRecord()
	req := BuildRequest(rec)

	if req.SourceIP != rec.SourceIP {
		t.Errorf("SourceIP = %q", req.SourceIP)
	}
	if req.DestinationPort == nil || *req.DestinationPort != 443 {
		t.Errorf("DestinationPort = %v", req.DestinationPort)
	}
	if req.BytesSent == nil || *req.BytesSent != 2048 {
		t.Errorf("BytesSent = %v", req.BytesSent)
	}
	if req.SourcePort != nil {
		t.Errorf("unknown SourcePort should stay nil, got %v", req.SourcePort)
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		wantErr bool
	}{
		{
			name: "valid",
			resp: Response{ThreatType: "BRUTE_FORCE", Severity: "HIGH", ConfidenceScore: 0.85, RiskScore: 72.5},
		},
		{
			name:    "unknown threat type",
			resp:    Response{ThreatType: "TROJAN", Severity: "HIGH"},
			wantErr: true,
		},
		{
			name:    "unknown severity",
			resp:    Response{ThreatType: "MALWARE", Severity: "SEVERE"},
			wantErr: true,
		},
		{
			name:    "empty enums",
			resp:    Response{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, err := ValidateResponse(&tt.resp)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCandidate) {
					t.Errorf("expected ErrInvalidCandidate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if candidate.ThreatType != models.ThreatBruteForce {
				t.Errorf("ThreatType = %s", candidate.ThreatType)
			}
		})
	}
}

func TestValidateResponseClampsScores(t *testing.T) {
	tests := []struct {
		name           string
		confidence     float64
		risk           float64
		wantConfidence float64
		wantRisk       float64
	}{
		{"above domain", 1.7, 140.0, 1.0, 100.0},
		{"below domain", -0.3, -5.0, 0.0, 0.0},
		{"in domain", 0.42, 33.3, 0.42, 33.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, err := ValidateResponse(&Response{
				ThreatType:      "MALWARE",
				Severity:        "HIGH",
				ConfidenceScore: tt.confidence,
				RiskScore:       tt.risk,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if candidate.ConfidenceScore != tt.wantConfidence {
				t.Errorf("ConfidenceScore = %v, want %v", candidate.ConfidenceScore, tt.wantConfidence)
			}
			if candidate.RiskScore != tt.wantRisk {
				t.Errorf("RiskScore = %v, want %v", candidate.RiskScore, tt.wantRisk)
			}
		})
	}
}

func TestHTTPScorerRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("path = %q, want /predict", r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SourceIP != "10.0.0.5" {
			t.Errorf("request SourceIP = %q", req.SourceIP)
		}
		_ = json.NewEncoder(w).Encode(Response{
			ThreatType:        "BRUTE_FORCE",
			Severity:          "HIGH",
			ConfidenceScore:   0.85,
			RiskScore:         72.5,
			Description:       "Repeated failed SSH logins",
			RecommendedAction: "Block source IP",
			ModelVersion:      "v2.1.0",
			ProcessingTimeMs:  12,
		})
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(HTTPConfig{BaseURL: srv.URL})
	candidate, err := scorer.Score(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if candidate.ThreatType != models.ThreatBruteForce || candidate.Severity != models.SeverityHigh {
		t.Errorf("candidate = %+v", candidate)
	}
	if candidate.ModelVersion != "v2.1.0" || candidate.ProcessingTimeMs != 12 {
		t.Errorf("scorer metadata = %q %d", candidate.ModelVersion, candidate.ProcessingTimeMs)
	}
}

func TestHTTPScorerInvalidEnumIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Response{ThreatType: "GREMLINS", Severity: "HIGH"})
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(HTTPConfig{BaseURL: srv.URL})
	if _, err := scorer.Score(context.Background(), testRecord()); !errors.Is(err, ErrInvalidCandidate) {
		t.Errorf("expected ErrInvalidCandidate, got %v", err)
	}
}

func TestHTTPScorerServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(HTTPConfig{BaseURL: srv.URL})
	if _, err := scorer.Score(context.Background(), testRecord()); !errors.Is(err, ErrScorerUnavailable) {
		t.Errorf("expected ErrScorerUnavailable, got %v", err)
	}
}

func TestHTTPScorerBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(HTTPConfig{
		BaseURL:            srv.URL,
		BreakerMaxFailures: 3,
		BreakerOpenTimeout: time.Minute,
	})

	for i := 0; i < 3; i++ {
		if _, err := scorer.Score(context.Background(), testRecord()); err == nil {
			t.Fatalf("call %d should have failed", i)
		}
	}

	// Breaker is now open: the next call must fail fast without a request.
	_, err := scorer.Score(context.Background(), testRecord())
	if !errors.Is(err, ErrScorerUnavailable) {
		t.Errorf("expected ErrScorerUnavailable from open breaker, got %v", err)
	}
}
