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

	"github.com/atelier-sec/vigil/internal/models"
)

// ErrRecordNotFound is returned when a log record does not exist.
var ErrRecordNotFound = errors.New("log record not found")

// SaveRecord stores a single log record.
func (s *Store) SaveRecord(ctx context.Context, rec *models.LogRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordKeyPrefix+rec.ID), data)
	})
}

// SaveRecords stores a batch of log records in one write batch. Uploads can
// carry tens of thousands of rows, so per-row transactions are avoided.
func (s *Store) SaveRecords(ctx context.Context, recs []*models.LogRecord) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.ID, err)
		}
		if err := wb.Set([]byte(recordKeyPrefix+rec.ID), data); err != nil {
			return fmt.Errorf("batch set record %s: %w", rec.ID, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush record batch: %w", err)
	}
	return nil
}

// GetRecord retrieves a log record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.LogRecord, error) {
	var rec models.LogRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountRecords returns the number of stored log records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
