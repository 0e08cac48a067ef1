// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package alerting owns the alert lifecycle state machine. All alert
// mutation goes through the Manager's transition operations; no other
// component assigns alert fields directly. Transitions on one alert
// identity are serialized by a per-identity lock, and terminal states
// (RESOLVED, FALSE_POSITIVE) admit no further transitions.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/notify"
)

// Sentinel errors.
var (
	// ErrAlertNotFound indicates a lookup by identity failed.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrTerminalState indicates a transition was attempted on a RESOLVED
	// or FALSE_POSITIVE alert.
	ErrTerminalState = errors.New("alert is in a terminal state")

	// ErrInvalidTransition indicates the requested transition is not
	// permitted from the alert's current state.
	ErrInvalidTransition = errors.New("invalid alert state transition")

	// ErrNotesRequired indicates a resolve call without resolution notes.
	ErrNotesRequired = errors.New("resolution notes are required")
)

// Fixed annotation texts. FalsePositiveNotes is exported because the API
// layer stamps the same annotation on the reviewed prediction.
const (
	FalsePositiveNotes = "Marked as false positive based on threat prediction review"
	staleResolvedNotes = "Auto-resolved due to age"
)

// DefaultStaleThreshold is the default age after which an ACTIVE alert is
// eligible for automatic resolution.
const DefaultStaleThreshold = 24 * time.Hour

// AlertStore is the persistence contract for alerts. Implementations map
// missing keys to ErrAlertNotFound.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *models.Alert) error
	UpdateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)

	// GetAlertByPrediction returns the alert linked to a prediction, or
	// ErrAlertNotFound when none is linked.
	GetAlertByPrediction(ctx context.Context, predictionID string) (*models.Alert, error)

	// ListStaleActive returns every ACTIVE alert created before cutoff.
	ListStaleActive(ctx context.Context, cutoff time.Time) ([]*models.Alert, error)
}

// Broadcaster pushes alert events to live subscribers. Satisfied by
// *notify.Broadcaster. Implementations must not return errors; delivery
// is best effort.
type Broadcaster interface {
	Publish(topic string, alert *models.Alert)
}

// Manager owns alert creation and every lifecycle transition.
type Manager struct {
	store       AlertStore
	broadcaster Broadcaster
	locks       *keyedMutex
	now         func() time.Time
}

// NewManager creates a Manager. broadcaster may be nil (no live push).
func NewManager(store AlertStore, broadcaster Broadcaster) *Manager {
	return &Manager{
		store:       store,
		broadcaster: broadcaster,
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// SetClock overrides the clock, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// CreateFromPrediction creates an ACTIVE alert derived from a prediction.
// Title, message, and affected systems are pure functions of the prediction
// and its source record.
func (m *Manager) CreateFromPrediction(ctx context.Context, pred *models.ThreatPrediction, rec *models.LogRecord) (*models.Alert, error) {
	alert := &models.Alert{
		ID:              uuid.New().String(),
		PredictionID:    pred.ID,
		Title:           AlertTitle(pred.ThreatType),
		Message:         AlertMessage(pred, rec),
		Severity:        pred.Severity,
		Status:          models.AlertActive,
		SourceIP:        rec.SourceIP,
		AffectedSystems: AffectedSystems(rec),
		CreatedAt:       m.now(),
	}

	if err := m.store.SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("save alert: %w", err)
	}

	metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
	m.publishCreation(alert)

	logging.Ctx(ctx).Info().
		Str("alert_id", alert.ID).
		Str("prediction_id", pred.ID).
		Str("severity", string(alert.Severity)).
		Msg("created alert from prediction")
	return alert, nil
}

// CreateCustom creates an ACTIVE alert supplied directly by an operator,
// with no linked prediction.
func (m *Manager) CreateCustom(ctx context.Context, title, msg string, severity models.ThreatSeverity, sourceIP string) (*models.Alert, error) {
	if !severity.Valid() {
		return nil, fmt.Errorf("unknown severity %q", severity)
	}

	alert := &models.Alert{
		ID:        uuid.New().String(),
		Title:     title,
		Message:   msg,
		Severity:  severity,
		Status:    models.AlertActive,
		SourceIP:  sourceIP,
		CreatedAt: m.now(),
	}

	if err := m.store.SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("save alert: %w", err)
	}

	metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
	m.publishCreation(alert)

	logging.Ctx(ctx).Info().Str("alert_id", alert.ID).Str("title", title).Msg("created custom alert")
	return alert, nil
}

// Acknowledge transitions an ACTIVE alert to ACKNOWLEDGED, stamping the
// acknowledgement time and actor. Optional notes are stored.
func (m *Manager) Acknowledge(ctx context.Context, id, actor, notes string) (*models.Alert, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	alert, err := m.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalState, alert.Status)
	}
	if alert.Status != models.AlertActive {
		return nil, fmt.Errorf("%w: cannot acknowledge from %s", ErrInvalidTransition, alert.Status)
	}

	now := m.now()
	alert.Status = models.AlertAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = actor
	if notes != "" {
		alert.ResolutionNotes = notes
	}

	if err := m.store.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}

	metrics.AlertTransitions.WithLabelValues(string(models.AlertAcknowledged)).Inc()
	m.publishUpdate(alert)

	logging.Ctx(ctx).Info().Str("alert_id", id).Str("actor", actor).Msg("alert acknowledged")
	return alert, nil
}

// Resolve transitions an ACTIVE or ACKNOWLEDGED alert to RESOLVED.
// Resolution notes are mandatory.
func (m *Manager) Resolve(ctx context.Context, id, actor, notes string) (*models.Alert, error) {
	if notes == "" {
		return nil, ErrNotesRequired
	}

	unlock := m.locks.lock(id)
	defer unlock()

	alert, err := m.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalState, alert.Status)
	}

	now := m.now()
	alert.Status = models.AlertResolved
	alert.ResolvedAt = &now
	alert.ResolvedBy = actor
	alert.ResolutionNotes = notes

	if err := m.store.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}

	metrics.AlertTransitions.WithLabelValues(string(models.AlertResolved)).Inc()
	m.publishUpdate(alert)

	logging.Ctx(ctx).Info().Str("alert_id", id).Str("actor", actor).Msg("alert resolved")
	return alert, nil
}

// MarkFalsePositiveForPrediction transitions the alert linked to a
// prediction to FALSE_POSITIVE. It is a no-op, not an error, when no alert
// is linked or the linked alert is already terminal.
func (m *Manager) MarkFalsePositiveForPrediction(ctx context.Context, predictionID, actor string) (*models.Alert, error) {
	linked, err := m.store.GetAlertByPrediction(ctx, predictionID)
	if errors.Is(err, ErrAlertNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	unlock := m.locks.lock(linked.ID)
	defer unlock()

	// Re-read under the lock; a concurrent transition may have won.
	alert, err := m.store.GetAlert(ctx, linked.ID)
	if err != nil {
		return nil, err
	}
	if alert.Status.Terminal() {
		return nil, nil
	}

	now := m.now()
	alert.Status = models.AlertFalsePositive
	alert.ResolvedAt = &now
	alert.ResolvedBy = actor
	alert.ResolutionNotes = FalsePositiveNotes

	if err := m.store.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}

	metrics.AlertTransitions.WithLabelValues(string(models.AlertFalsePositive)).Inc()
	m.publishUpdate(alert)

	logging.Ctx(ctx).Info().Str("alert_id", alert.ID).Str("prediction_id", predictionID).Msg("alert marked false positive")
	return alert, nil
}

// SweepStale auto-resolves every ACTIVE alert older than threshold and
// returns the count affected. The sweep is idempotent: RESOLVED is
// terminal, so a second run over the same alerts affects zero.
func (m *Manager) SweepStale(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := m.now().Add(-threshold)
	stale, err := m.store.ListStaleActive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale alerts: %w", err)
	}

	resolved := 0
	for _, candidate := range stale {
		n, err := m.sweepOne(ctx, candidate.ID)
		if err != nil {
			logging.Error().Err(err).Str("alert_id", candidate.ID).Msg("stale sweep failed for alert")
			continue
		}
		resolved += n
	}

	if resolved > 0 {
		metrics.StaleAlertsResolved.Add(float64(resolved))
	}
	logging.Info().
		Int("resolved", resolved).
		Dur("threshold", threshold).
		Msg("stale alert sweep completed")
	return resolved, nil
}

// sweepOne resolves a single stale alert under its lock, tolerating a
// concurrent manual transition.
func (m *Manager) sweepOne(ctx context.Context, id string) (int, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	alert, err := m.store.GetAlert(ctx, id)
	if errors.Is(err, ErrAlertNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// Only ACTIVE alerts are swept; a concurrent acknowledge or resolve
	// between listing and locking exempts the alert.
	if alert.Status != models.AlertActive {
		return 0, nil
	}

	now := m.now()
	alert.Status = models.AlertResolved
	alert.ResolvedAt = &now
	alert.ResolutionNotes = staleResolvedNotes

	if err := m.store.UpdateAlert(ctx, alert); err != nil {
		return 0, err
	}

	metrics.AlertTransitions.WithLabelValues(string(models.AlertResolved)).Inc()
	m.publishUpdate(alert)
	return 1, nil
}

// Get returns an alert by identity.
func (m *Manager) Get(ctx context.Context, id string) (*models.Alert, error) {
	return m.store.GetAlert(ctx, id)
}

// publishCreation broadcasts a creation event to the global topic and the
// severity-scoped topic.
func (m *Manager) publishCreation(alert *models.Alert) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Publish(notify.TopicAlerts, alert)
	m.broadcaster.Publish(notify.SeverityTopic(alert.Severity), alert)
}

// publishUpdate broadcasts a transition event to the global topic and the
// update topic.
func (m *Manager) publishUpdate(alert *models.Alert) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Publish(notify.TopicAlerts, alert)
	m.broadcaster.Publish(notify.TopicAlertUpdates, alert)
}
