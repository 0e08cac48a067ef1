// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method without
// importing the websocket package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the WebSocket hub as a supervised service. The hub's
// RunWithContext already follows the suture.Service contract; the wrapper
// only contributes a stable name for supervisor logs.
type HubService struct {
	hub ContextHub
}

// NewHubService creates a hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *HubService) String() string {
	return "websocket-hub"
}
