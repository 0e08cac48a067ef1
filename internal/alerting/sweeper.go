// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package alerting

import (
	"context"
	"time"

	"github.com/atelier-sec/vigil/internal/logging"
)

// Sweeper runs the stale-alert sweep on a periodic timer, independent of
// the request path. It implements suture.Service and tolerates running
// concurrently with manual acknowledge/resolve calls: the transition rules
// prevent double resolution since RESOLVED is terminal.
type Sweeper struct {
	manager   *Manager
	interval  time.Duration
	threshold time.Duration
}

// NewSweeper creates a Sweeper. Zero interval defaults to 1h, zero
// threshold to DefaultStaleThreshold.
func NewSweeper(manager *Manager, interval, threshold time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	return &Sweeper{manager: manager, interval: interval, threshold: threshold}
}

// Serve implements suture.Service. It sweeps once immediately, then on
// every tick until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", s.interval).
		Dur("threshold", s.threshold).
		Msg("stale alert sweeper started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("stale alert sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.manager.SweepStale(ctx, s.threshold); err != nil {
		logging.Error().Err(err).Msg("stale alert sweep failed")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Sweeper) String() string {
	return "alert-sweeper"
}
