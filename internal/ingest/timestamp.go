// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package ingest

import (
	"strings"
	"time"
)

// timestampLayouts lists the accepted timestamp formats in priority order.
// The first layout that parses wins. Note the US slash format precedes the
// EU one, so ambiguous day-month values resolve as US dates.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
}

// ParseTimestamp attempts each known layout in order and reports whether
// any matched. Empty input does not match.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
