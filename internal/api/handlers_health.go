// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"net/http"
	"time"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var startTime = time.Now()

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyStatus is the readiness payload.
type ReadyStatus struct {
	Status           string `json:"status"`
	Database         string `json:"database"`
	WebSocketClients int    `json:"websocket_clients"`
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond.Success(w, r, HealthStatus{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
	})
}

// Ready reports whether the service can take traffic. The database is
// probed with a cheap key scan.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := ReadyStatus{
		Status:           "ready",
		Database:         "ok",
		WebSocketClients: h.hub.GetClientCount(),
	}

	if _, err := h.store.CountRecords(r.Context()); err != nil {
		status.Status = "not ready"
		status.Database = err.Error()
		h.respond.write(w, r, http.StatusServiceUnavailable, APIResponse{Success: false, Data: status})
		return
	}
	h.respond.Success(w, r, status)
}
