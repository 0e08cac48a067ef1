// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/atelier-sec/vigil/internal/engine"
	"github.com/atelier-sec/vigil/internal/models"
)

// SavePrediction stores a new threat prediction.
func (s *Store) SavePrediction(ctx context.Context, pred *models.ThreatPrediction) error {
	data, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(predictionKeyPrefix+pred.ID), data)
	})
}

// UpdatePrediction overwrites an existing prediction.
func (s *Store) UpdatePrediction(ctx context.Context, pred *models.ThreatPrediction) error {
	data, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(predictionKeyPrefix + pred.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return engine.ErrPredictionNotFound
		} else if err != nil {
			return fmt.Errorf("get prediction: %w", err)
		}
		return txn.Set(key, data)
	})
}

// GetPrediction retrieves a prediction by ID.
func (s *Store) GetPrediction(ctx context.Context, id string) (*models.ThreatPrediction, error) {
	var pred models.ThreatPrediction

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(predictionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return engine.ErrPredictionNotFound
		}
		if err != nil {
			return fmt.Errorf("get prediction: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &pred)
		})
	})
	if err != nil {
		return nil, err
	}
	return &pred, nil
}

// PredictionFilter narrows ListPredictions. Zero values match everything.
type PredictionFilter struct {
	ThreatType models.ThreatType
	Severity   models.ThreatSeverity

	// FalsePositive filters on the review verdict when non-nil.
	FalsePositive *bool

	// Limit caps the result size. Zero means no cap.
	Limit int
}

func (f PredictionFilter) matches(pred *models.ThreatPrediction) bool {
	if f.ThreatType != "" && pred.ThreatType != f.ThreatType {
		return false
	}
	if f.Severity != "" && pred.Severity != f.Severity {
		return false
	}
	if f.FalsePositive != nil && pred.IsFalsePositive != *f.FalsePositive {
		return false
	}
	return true
}

// ListPredictions returns predictions matching the filter. Iteration order
// follows key order, which is prediction ID order, not creation order.
func (s *Store) ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.ThreatPrediction, error) {
	var preds []*models.ThreatPrediction

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(predictionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if filter.Limit > 0 && len(preds) >= filter.Limit {
				return nil
			}

			var pred models.ThreatPrediction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &pred)
			})
			if err != nil {
				continue
			}
			if filter.matches(&pred) {
				p := pred
				preds = append(preds, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return preds, nil
}
