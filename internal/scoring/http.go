// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package scoring

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
	"github.com/atelier-sec/vigil/internal/models"
)

// HTTPConfig configures the HTTP scorer.
type HTTPConfig struct {
	// BaseURL is the scorer's base URL; requests POST to <BaseURL>/predict.
	BaseURL string

	// Timeout bounds a single scoring call. Default 10s.
	Timeout time.Duration

	// BreakerMaxFailures is the consecutive-failure count that opens the
	// circuit breaker. Default 5.
	BreakerMaxFailures uint32

	// BreakerOpenTimeout is how long the breaker stays open before
	// probing again. Default 30s.
	BreakerOpenTimeout time.Duration
}

// HTTPScorer scores records against the remote ML service over HTTP.
// A circuit breaker sheds load while the service is down so a batch full
// of records fails fast instead of stacking up timeouts.
type HTTPScorer struct {
	cfg     HTTPConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Response]
}

// NewHTTPScorer creates an HTTP scorer for the given service.
func NewHTTPScorer(cfg HTTPConfig) *HTTPScorer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout == 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:    "ml-scorer",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("scorer circuit breaker state change")
		},
	})

	return &HTTPScorer{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

// Score implements Scorer. Remote failures and breaker rejections surface
// as ErrScorerUnavailable; contract violations as ErrInvalidCandidate.
func (s *HTTPScorer) Score(ctx context.Context, rec *models.LogRecord) (*Candidate, error) {
	req := BuildRequest(rec)

	start := time.Now()
	resp, err := s.breaker.Execute(func() (*Response, error) {
		return s.post(ctx, &req)
	})
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScoringFailures.Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit breaker open", ErrScorerUnavailable)
		}
		return nil, err
	}

	candidate, err := ValidateResponse(resp)
	if err != nil {
		metrics.ScoringFailures.Inc()
		return nil, err
	}
	return candidate, nil
}

// post performs one scoring round trip.
func (s *HTTPScorer) post(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal scoring request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scoring request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("%w: scorer returned status %d", ErrScorerUnavailable, httpResp.StatusCode)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInvalidCandidate, err)
	}
	return &resp, nil
}
