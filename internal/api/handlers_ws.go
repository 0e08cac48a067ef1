// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"net/http"

	"github.com/atelier-sec/vigil/internal/logging"
	ws "github.com/atelier-sec/vigil/internal/websocket"
)

// WebSocket upgrades the connection and attaches the client to the
// alert hub. Clients start subscribed to the firehose topic and may
// adjust their subscriptions over the socket.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.respond.Unavailable(w, r, "live alert feed unavailable")
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
