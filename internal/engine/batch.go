// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package engine

import (
	"context"
	"sync"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/models"
)

// BatchOptions configures one AnalyzeBatch call.
type BatchOptions struct {
	// Ordered forces sequential analysis so persisted prediction order
	// matches input order. Default is parallel, unordered.
	Ordered bool

	// Concurrency overrides the engine's worker count for this batch.
	Concurrency int
}

// BatchResult aggregates per-record outcomes of a batch analysis. One bad
// record never aborts the batch; its failure is recorded by input index.
type BatchResult struct {
	// Predictions holds every successful prediction. Order matches input
	// only in ordered mode.
	Predictions []*models.ThreatPrediction

	// Failures maps input index to the per-record error.
	Failures map[int]error

	// Submitted is the number of records actually dispatched before any
	// cancellation was observed.
	Submitted int
}

// Succeeded returns the successful record count.
func (r *BatchResult) Succeeded() int { return len(r.Predictions) }

// Failed returns the failed record count.
func (r *BatchResult) Failed() int { return len(r.Failures) }

// AnalyzeBatch scores a batch of records with partial-failure semantics.
// Scoring calls run in parallel up to the concurrency limit; each call is
// independent and idempotent with respect to other records. When ctx is
// canceled, records already dispatched complete but no further records are
// submitted.
func (e *Engine) AnalyzeBatch(ctx context.Context, recs []*models.LogRecord, opts BatchOptions) *BatchResult {
	result := &BatchResult{Failures: make(map[int]error)}
	if len(recs) == 0 {
		return result
	}

	if opts.Ordered {
		e.analyzeSequential(ctx, recs, result)
	} else {
		e.analyzeParallel(ctx, recs, opts, result)
	}

	logging.Ctx(ctx).Info().
		Int("submitted", result.Submitted).
		Int("succeeded", result.Succeeded()).
		Int("failed", result.Failed()).
		Msg("batch analysis completed")
	return result
}

// analyzeSequential preserves input order.
func (e *Engine) analyzeSequential(ctx context.Context, recs []*models.LogRecord, result *BatchResult) {
	for i, rec := range recs {
		if ctx.Err() != nil {
			return
		}
		result.Submitted++

		if err := e.waitForSlot(ctx); err != nil {
			result.Failures[i] = err
			return
		}
		pred, err := e.Analyze(ctx, rec)
		if err != nil {
			result.Failures[i] = err
			continue
		}
		result.Predictions = append(result.Predictions, pred)
	}
}

// analyzeParallel fans records out to a bounded worker pool.
func (e *Engine) analyzeParallel(ctx context.Context, recs []*models.LogRecord, opts BatchOptions, result *BatchResult) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = e.concurrency
	}
	if concurrency > len(recs) {
		concurrency = len(recs)
	}

	jobs := make(chan int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := e.waitForSlot(ctx); err != nil {
					mu.Lock()
					result.Failures[i] = err
					mu.Unlock()
					continue
				}
				pred, err := e.Analyze(ctx, recs[i])
				mu.Lock()
				if err != nil {
					result.Failures[i] = err
				} else {
					result.Predictions = append(result.Predictions, pred)
				}
				mu.Unlock()
			}
		}()
	}

	// Dispatch until done or canceled. In-flight work completes; nothing
	// further is submitted once cancellation is observed.
dispatch:
	for i := range recs {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			mu.Lock()
			result.Submitted++
			mu.Unlock()
		}
	}
	close(jobs)
	wg.Wait()
}

// waitForSlot blocks on the engine's scoring rate limiter, if configured.
func (e *Engine) waitForSlot(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}
