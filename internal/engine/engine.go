// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package engine orchestrates per-record threat scoring: it builds scoring
// requests, persists predictions, applies the alert-worthiness policy, and
// triggers alert creation. The prediction is the durable record of truth;
// the alert is a derived notification and is allowed to be best effort.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/scoring"
)

// ErrPredictionNotFound indicates a prediction lookup by identity failed.
var ErrPredictionNotFound = errors.New("prediction not found")

// PredictionStore is the persistence contract for predictions.
// Implementations map missing keys to ErrPredictionNotFound.
type PredictionStore interface {
	SavePrediction(ctx context.Context, pred *models.ThreatPrediction) error
	UpdatePrediction(ctx context.Context, pred *models.ThreatPrediction) error
	GetPrediction(ctx context.Context, id string) (*models.ThreatPrediction, error)
}

// AlertSink receives alert-worthy predictions. Satisfied by
// *alerting.Manager.
type AlertSink interface {
	CreateFromPrediction(ctx context.Context, pred *models.ThreatPrediction, rec *models.LogRecord) (*models.Alert, error)
	MarkFalsePositiveForPrediction(ctx context.Context, predictionID, actor string) (*models.Alert, error)
}

// AlertPolicy decides which predictions spawn alerts.
//
// The default thresholds are fixed: an alert is created if and only if the
// threat type is not NORMAL, confidence exceeds 0.7, and severity is HIGH
// or CRITICAL.
type AlertPolicy struct {
	// MinConfidence is the exclusive confidence threshold.
	MinConfidence float64

	// MinSeverity is the minimum severity (inclusive).
	MinSeverity models.ThreatSeverity
}

// DefaultAlertPolicy returns the fixed default thresholds.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		MinConfidence: 0.7,
		MinSeverity:   models.SeverityHigh,
	}
}

// ShouldAlert applies the alert-worthiness policy. NORMAL predictions never
// alert regardless of confidence.
func (p AlertPolicy) ShouldAlert(pred *models.ThreatPrediction) bool {
	return pred.ThreatType != models.ThreatNormal &&
		pred.ConfidenceScore > p.MinConfidence &&
		pred.Severity.AtLeast(p.MinSeverity)
}

// Config configures the engine.
type Config struct {
	// Policy is the alert-worthiness policy. Zero value means default.
	Policy AlertPolicy

	// Concurrency is the default worker count for batch analysis.
	// Default 8.
	Concurrency int

	// ScoreRatePerSec throttles scoring calls across a batch.
	// 0 means unlimited.
	ScoreRatePerSec float64
}

// Engine coordinates scoring, prediction persistence, and alert creation.
type Engine struct {
	scorer      scoring.Scorer
	predictions PredictionStore
	alerts      AlertSink
	policy      AlertPolicy
	concurrency int
	limiter     *rate.Limiter
	now         func() time.Time
}

// New creates an Engine.
func New(scorer scoring.Scorer, predictions PredictionStore, alerts AlertSink, cfg Config) *Engine {
	policy := cfg.Policy
	if policy.MinConfidence == 0 && policy.MinSeverity == "" {
		policy = DefaultAlertPolicy()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	var limiter *rate.Limiter
	if cfg.ScoreRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ScoreRatePerSec), 1)
	}

	return &Engine{
		scorer:      scorer,
		predictions: predictions,
		alerts:      alerts,
		policy:      policy,
		concurrency: concurrency,
		limiter:     limiter,
		now:         time.Now,
	}
}

// SetClock overrides the clock, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Analyze scores one record, persists the resulting prediction, and
// creates an alert when the policy fires. Alert-creation failure is logged
// but never fails the prediction.
func (e *Engine) Analyze(ctx context.Context, rec *models.LogRecord) (*models.ThreatPrediction, error) {
	candidate, err := e.scorer.Score(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("score record %s: %w", rec.ID, err)
	}

	now := e.now()
	pred := &models.ThreatPrediction{
		ID:                uuid.New().String(),
		LogRecordID:       rec.ID,
		ThreatType:        candidate.ThreatType,
		Severity:          candidate.Severity,
		ConfidenceScore:   candidate.ConfidenceScore,
		RiskScore:         candidate.RiskScore,
		Description:       candidate.Description,
		RecommendedAction: candidate.RecommendedAction,
		ModelVersion:      candidate.ModelVersion,
		ProcessingTimeMs:  candidate.ProcessingTimeMs,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := e.predictions.SavePrediction(ctx, pred); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}
	metrics.PredictionsCreated.WithLabelValues(string(pred.ThreatType), string(pred.Severity)).Inc()

	if e.policy.ShouldAlert(pred) {
		if _, err := e.alerts.CreateFromPrediction(ctx, pred, rec); err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("prediction_id", pred.ID).
				Msg("alert creation failed, prediction kept")
		}
	}

	logging.Ctx(ctx).Debug().
		Str("prediction_id", pred.ID).
		Str("threat_type", string(pred.ThreatType)).
		Float64("confidence", pred.ConfidenceScore).
		Msg("record analyzed")
	return pred, nil
}

// MarkFalsePositive records an analyst's false-positive verdict on a
// prediction and cascades the verdict to any linked alert. The reviewer
// identity is explicit; there is no implicit current user.
func (e *Engine) MarkFalsePositive(ctx context.Context, id, reviewer, notes string) (*models.ThreatPrediction, error) {
	pred, err := e.predictions.GetPrediction(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	pred.IsFalsePositive = true
	pred.AnalystNotes = notes
	pred.ReviewedBy = reviewer
	pred.ReviewedAt = &now
	pred.UpdatedAt = now

	if err := e.predictions.UpdatePrediction(ctx, pred); err != nil {
		return nil, fmt.Errorf("update prediction: %w", err)
	}

	// The alert is derived state; a cascade failure does not undo the
	// review verdict.
	if _, err := e.alerts.MarkFalsePositiveForPrediction(ctx, id, reviewer); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("prediction_id", id).Msg("false-positive cascade to alert failed")
	}

	logging.Ctx(ctx).Info().Str("prediction_id", id).Str("reviewer", reviewer).Msg("prediction marked false positive")
	return pred, nil
}

// UpdateNotes replaces the analyst notes on a prediction, stamping the
// reviewer and review time.
func (e *Engine) UpdateNotes(ctx context.Context, id, reviewer, notes string) (*models.ThreatPrediction, error) {
	pred, err := e.predictions.GetPrediction(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	pred.AnalystNotes = notes
	pred.ReviewedBy = reviewer
	pred.ReviewedAt = &now
	pred.UpdatedAt = now

	if err := e.predictions.UpdatePrediction(ctx, pred); err != nil {
		return nil, fmt.Errorf("update prediction: %w", err)
	}
	return pred, nil
}

// Get returns a prediction by identity.
func (e *Engine) Get(ctx context.Context, id string) (*models.ThreatPrediction, error) {
	return e.predictions.GetPrediction(ctx, id)
}
