// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package store persists log records, threat predictions, and alerts in
// BadgerDB. One Store satisfies the engine.PredictionStore and
// alerting.AlertStore contracts; values are JSON under typed key prefixes.
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/atelier-sec/vigil/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	recordKeyPrefix     = "record:"
	predictionKeyPrefix = "prediction:"
	alertKeyPrefix      = "alert:"

	// Secondary indexes. alert_pred maps prediction ID -> alert ID;
	// alert_active orders ACTIVE alerts by creation time for the sweep.
	alertPredKeyPrefix   = "alert_pred:"
	alertActiveKeyPrefix = "alert_active:"
)

// Config controls how the underlying BadgerDB is opened.
type Config struct {
	// Path is the on-disk database directory. Ignored when InMemory is set.
	Path string

	// InMemory opens an ephemeral database. Intended for tests and dev.
	InMemory bool

	// SyncWrites forces an fsync per write. Durable but slower.
	SyncWrites bool
}

// Store is a BadgerDB-backed implementation of the persistence contracts.
type Store struct {
	db *badger.DB
}

// Open creates or opens the database described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: path required for on-disk database")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}

	// Badger's own logger is noisy; we log open/close ourselves.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Store opened")

	return &Store{db: db}, nil
}

// OpenInMemory is a convenience for tests.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sync flushes pending writes to disk. No-op for in-memory databases.
func (s *Store) Sync() error {
	if s.db.Opts().InMemory {
		return nil
	}
	return s.db.Sync()
}
