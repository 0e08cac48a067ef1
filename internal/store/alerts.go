// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/atelier-sec/vigil/internal/alerting"
	"github.com/atelier-sec/vigil/internal/models"
)

// activeIndexLayout is fixed-width so the alert_active keys sort
// chronologically. time.RFC3339Nano trims trailing zeros and would not.
const activeIndexLayout = "2006-01-02T15:04:05.000000000"

func activeIndexKey(alert *models.Alert) []byte {
	return []byte(alertActiveKeyPrefix + alert.CreatedAt.UTC().Format(activeIndexLayout) + ":" + alert.ID)
}

// SaveAlert stores a new alert and its secondary index entries.
func (s *Store) SaveAlert(ctx context.Context, alert *models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(alertKeyPrefix+alert.ID), data); err != nil {
			return fmt.Errorf("set alert: %w", err)
		}

		if alert.PredictionID != "" {
			key := []byte(alertPredKeyPrefix + alert.PredictionID)
			if err := txn.Set(key, []byte(alert.ID)); err != nil {
				return fmt.Errorf("set prediction mapping: %w", err)
			}
		}

		if alert.Status == models.AlertActive {
			if err := txn.Set(activeIndexKey(alert), []byte(alert.ID)); err != nil {
				return fmt.Errorf("set active index: %w", err)
			}
		}

		return nil
	})
}

// UpdateAlert overwrites an existing alert and keeps the active index in
// step with its status.
func (s *Store) UpdateAlert(ctx context.Context, alert *models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(alertKeyPrefix + alert.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return alerting.ErrAlertNotFound
		} else if err != nil {
			return fmt.Errorf("get alert: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set alert: %w", err)
		}

		idx := activeIndexKey(alert)
		if alert.Status == models.AlertActive {
			if err := txn.Set(idx, []byte(alert.ID)); err != nil {
				return fmt.Errorf("set active index: %w", err)
			}
		} else if err := txn.Delete(idx); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete active index: %w", err)
		}

		return nil
	})
}

// GetAlert retrieves an alert by ID.
func (s *Store) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(alertKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return alerting.ErrAlertNotFound
		}
		if err != nil {
			return fmt.Errorf("get alert: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &alert)
		})
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// GetAlertByPrediction returns the alert linked to a prediction, or
// alerting.ErrAlertNotFound when none is linked.
func (s *Store) GetAlertByPrediction(ctx context.Context, predictionID string) (*models.Alert, error) {
	var alertID string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(alertPredKeyPrefix + predictionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return alerting.ErrAlertNotFound
		}
		if err != nil {
			return fmt.Errorf("get prediction mapping: %w", err)
		}
		return item.Value(func(val []byte) error {
			alertID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetAlert(ctx, alertID)
}

// ListStaleActive returns every ACTIVE alert created before cutoff, oldest
// first. The alert_active keys are time-ordered, so the scan stops at the
// first entry at or past the cutoff.
func (s *Store) ListStaleActive(ctx context.Context, cutoff time.Time) ([]*models.Alert, error) {
	var ids []string
	stop := cutoff.UTC().Format(activeIndexLayout)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(alertActiveKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ts := strings.TrimPrefix(string(it.Item().Key()), alertActiveKeyPrefix)
			if ts >= stop {
				return nil
			}
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan active index: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(ids))
	for _, id := range ids {
		alert, err := s.GetAlert(ctx, id)
		if errors.Is(err, alerting.ErrAlertNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// AlertFilter narrows ListAlerts. Zero values match everything.
type AlertFilter struct {
	Status   models.AlertStatus
	Severity models.ThreatSeverity
	Limit    int
}

func (f AlertFilter) matches(alert *models.Alert) bool {
	if f.Status != "" && alert.Status != f.Status {
		return false
	}
	if f.Severity != "" && alert.Severity != f.Severity {
		return false
	}
	return true
}

// ListAlerts returns alerts matching the filter in key order.
func (s *Store) ListAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, error) {
	var alerts []*models.Alert

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(alertKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if filter.Limit > 0 && len(alerts) >= filter.Limit {
				return nil
			}

			var alert models.Alert
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &alert)
			})
			if err != nil {
				continue
			}
			if filter.matches(&alert) {
				a := alert
				alerts = append(alerts, &a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}
