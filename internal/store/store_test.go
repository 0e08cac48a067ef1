// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/atelier-sec/vigil/internal/alerting"
	"github.com/atelier-sec/vigil/internal/engine"
	"github.com/atelier-sec/vigil/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestRecordRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	port := 443
	bytes := int64(2048)
	rec := &models.LogRecord{
		ID:              "rec-1",
		SourceIP:        "192.168.1.50",
		DestinationIP:   "10.0.0.1",
		DestinationPort: &port,
		Protocol:        "TCP",
		BytesSent:       &bytes,
		Timestamp:       time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		UploadedBy:      "analyst-1",
		FileName:        "fw-export.csv",
	}

	if err := s.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	got, err := s.GetRecord(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.SourceIP != rec.SourceIP || got.Protocol != rec.Protocol {
		t.Errorf("got %+v", got)
	}
	if got.DestinationPort == nil || *got.DestinationPort != 443 {
		t.Errorf("DestinationPort = %v", got.DestinationPort)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}
}

func TestRecordNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetRecord(context.Background(), "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSaveRecordsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := make([]*models.LogRecord, 50)
	for i := range recs {
		recs[i] = &models.LogRecord{
			ID:        fmt.Sprintf("rec-%03d", i),
			SourceIP:  "10.0.0.1",
			Timestamp: time.Now(),
		}
	}

	if err := s.SaveRecords(ctx, recs); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	count, err := s.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}

	if _, err := s.GetRecord(ctx, "rec-025"); err != nil {
		t.Errorf("GetRecord rec-025: %v", err)
	}
}

func prediction(id string, threatType models.ThreatType, severity models.ThreatSeverity) *models.ThreatPrediction {
	now := time.Now().UTC()
	return &models.ThreatPrediction{
		ID:              id,
		LogRecordID:     "rec-" + id,
		ThreatType:      threatType,
		Severity:        severity,
		ConfidenceScore: 0.9,
		RiskScore:       80,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPredictionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pred := prediction("p1", models.ThreatBruteForce, models.SeverityHigh)
	if err := s.SavePrediction(ctx, pred); err != nil {
		t.Fatalf("SavePrediction: %v", err)
	}

	got, err := s.GetPrediction(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPrediction: %v", err)
	}
	if got.ThreatType != models.ThreatBruteForce || got.Severity != models.SeverityHigh {
		t.Errorf("got %s/%s", got.ThreatType, got.Severity)
	}

	got.IsFalsePositive = true
	got.ReviewedBy = "analyst-2"
	if err := s.UpdatePrediction(ctx, got); err != nil {
		t.Fatalf("UpdatePrediction: %v", err)
	}

	again, err := s.GetPrediction(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPrediction after update: %v", err)
	}
	if !again.IsFalsePositive || again.ReviewedBy != "analyst-2" {
		t.Errorf("update not persisted: %+v", again)
	}
}

func TestPredictionNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetPrediction(ctx, "missing"); !errors.Is(err, engine.ErrPredictionNotFound) {
		t.Errorf("Get: expected ErrPredictionNotFound, got %v", err)
	}
	if err := s.UpdatePrediction(ctx, prediction("missing", models.ThreatMalware, models.SeverityLow)); !errors.Is(err, engine.ErrPredictionNotFound) {
		t.Errorf("Update: expected ErrPredictionNotFound, got %v", err)
	}
}

func TestListPredictionsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeds := []*models.ThreatPrediction{
		prediction("p1", models.ThreatBruteForce, models.SeverityHigh),
		prediction("p2", models.ThreatMalware, models.SeverityCritical),
		prediction("p3", models.ThreatBruteForce, models.SeverityMedium),
		prediction("p4", models.ThreatNormal, models.SeverityLow),
	}
	seeds[3].IsFalsePositive = true
	for _, p := range seeds {
		if err := s.SavePrediction(ctx, p); err != nil {
			t.Fatalf("SavePrediction %s: %v", p.ID, err)
		}
	}

	byType, err := s.ListPredictions(ctx, PredictionFilter{ThreatType: models.ThreatBruteForce})
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(byType) != 2 {
		t.Errorf("by type: %d results, want 2", len(byType))
	}

	bySeverity, err := s.ListPredictions(ctx, PredictionFilter{Severity: models.SeverityCritical})
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(bySeverity) != 1 || bySeverity[0].ID != "p2" {
		t.Errorf("by severity: %+v", bySeverity)
	}

	fp := true
	byVerdict, err := s.ListPredictions(ctx, PredictionFilter{FalsePositive: &fp})
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(byVerdict) != 1 || byVerdict[0].ID != "p4" {
		t.Errorf("by verdict: %+v", byVerdict)
	}

	limited, err := s.ListPredictions(ctx, PredictionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited: %d results, want 2", len(limited))
	}
}

func alert(id string, status models.AlertStatus, createdAt time.Time) *models.Alert {
	return &models.Alert{
		ID:        id,
		Title:     "Brute Force Attack Detected",
		Message:   "test alert",
		Severity:  models.SeverityHigh,
		Status:    status,
		SourceIP:  "10.0.0.5",
		CreatedAt: createdAt,
	}
}

func TestAlertRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := alert("a1", models.AlertActive, time.Now().UTC())
	a.PredictionID = "p1"
	if err := s.SaveAlert(ctx, a); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}

	got, err := s.GetAlert(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAlert: %v", err)
	}
	if got.Status != models.AlertActive || got.Title != a.Title {
		t.Errorf("got %+v", got)
	}

	linked, err := s.GetAlertByPrediction(ctx, "p1")
	if err != nil {
		t.Fatalf("GetAlertByPrediction: %v", err)
	}
	if linked.ID != "a1" {
		t.Errorf("linked alert = %q", linked.ID)
	}
}

func TestAlertNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAlert(ctx, "missing"); !errors.Is(err, alerting.ErrAlertNotFound) {
		t.Errorf("GetAlert: expected ErrAlertNotFound, got %v", err)
	}
	if _, err := s.GetAlertByPrediction(ctx, "missing"); !errors.Is(err, alerting.ErrAlertNotFound) {
		t.Errorf("GetAlertByPrediction: expected ErrAlertNotFound, got %v", err)
	}
	if err := s.UpdateAlert(ctx, alert("missing", models.AlertActive, time.Now())); !errors.Is(err, alerting.ErrAlertNotFound) {
		t.Errorf("UpdateAlert: expected ErrAlertNotFound, got %v", err)
	}
}

func TestListStaleActiveCutoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Two old ACTIVE, one fresh ACTIVE, one old but acknowledged.
	old1 := alert("a1", models.AlertActive, base.Add(-48*time.Hour))
	old2 := alert("a2", models.AlertActive, base.Add(-30*time.Hour))
	fresh := alert("a3", models.AlertActive, base.Add(-1*time.Hour))
	acked := alert("a4", models.AlertAcknowledged, base.Add(-72*time.Hour))

	for _, a := range []*models.Alert{old2, fresh, acked, old1} {
		if err := s.SaveAlert(ctx, a); err != nil {
			t.Fatalf("SaveAlert %s: %v", a.ID, err)
		}
	}

	stale, err := s.ListStaleActive(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("ListStaleActive: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("%d stale alerts, want 2", len(stale))
	}
	// Oldest first.
	if stale[0].ID != "a1" || stale[1].ID != "a2" {
		t.Errorf("order = [%s %s], want [a1 a2]", stale[0].ID, stale[1].ID)
	}
}

func TestActiveIndexFollowsStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := alert("a1", models.AlertActive, base.Add(-48*time.Hour))
	if err := s.SaveAlert(ctx, a); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}

	now := base
	a.Status = models.AlertResolved
	a.ResolvedAt = &now
	a.ResolvedBy = "system"
	if err := s.UpdateAlert(ctx, a); err != nil {
		t.Fatalf("UpdateAlert: %v", err)
	}

	stale, err := s.ListStaleActive(ctx, base)
	if err != nil {
		t.Fatalf("ListStaleActive: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("resolved alert still in active index: %+v", stale)
	}
}

func TestListAlertsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a1 := alert("a1", models.AlertActive, now)
	a2 := alert("a2", models.AlertResolved, now)
	a3 := alert("a3", models.AlertActive, now)
	a3.Severity = models.SeverityCritical

	for _, a := range []*models.Alert{a1, a2, a3} {
		if err := s.SaveAlert(ctx, a); err != nil {
			t.Fatalf("SaveAlert %s: %v", a.ID, err)
		}
	}

	active, err := s.ListAlerts(ctx, AlertFilter{Status: models.AlertActive})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active: %d results, want 2", len(active))
	}

	critical, err := s.ListAlerts(ctx, AlertFilter{Severity: models.SeverityCritical})
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(critical) != 1 || critical[0].ID != "a3" {
		t.Errorf("critical: %+v", critical)
	}
}

// The store must satisfy the consumer-side persistence contracts.
var (
	_ engine.PredictionStore = (*Store)(nil)
	_ alerting.AlertStore    = (*Store)(nil)
)
