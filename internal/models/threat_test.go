// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package models

import "testing"

func TestThreatTypeValid(t *testing.T) {
	valid := []ThreatType{
		ThreatMalware, ThreatPhishing, ThreatDDoS, ThreatBruteForce,
		ThreatSQLInjection, ThreatXSS, ThreatSuspiciousActivity,
		ThreatDataExfiltration, ThreatUnauthorizedAccess, ThreatPortScan,
		ThreatBotnet, ThreatRansomware, ThreatInsiderThreat, ThreatAPT,
		ThreatNormal,
	}
	for _, tt := range valid {
		if !tt.Valid() {
			t.Errorf("%s should be valid", tt)
		}
	}

	for _, s := range []string{"", "MALWARE2", "normal", "ddos"} {
		if ThreatType(s).Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestParseThreatType(t *testing.T) {
	got, err := ParseThreatType("BRUTE_FORCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ThreatBruteForce {
		t.Errorf("got %s, want BRUTE_FORCE", got)
	}

	if _, err := ParseThreatType("TROJAN"); err == nil {
		t.Error("expected error for unknown threat type")
	}
}

func TestSeverityOrdering(t *testing.T) {
	order := []ThreatSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
	}

	if !SeverityCritical.AtLeast(SeverityHigh) {
		t.Error("CRITICAL should be at least HIGH")
	}
	if SeverityMedium.AtLeast(SeverityHigh) {
		t.Error("MEDIUM should not be at least HIGH")
	}
	if ThreatSeverity("SEVERE").Rank() != -1 {
		t.Error("unknown severity should rank -1")
	}
}

func TestAlertStatusTerminal(t *testing.T) {
	tests := []struct {
		status   AlertStatus
		terminal bool
	}{
		{AlertActive, false},
		{AlertAcknowledged, false},
		{AlertResolved, true},
		{AlertFalsePositive, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if tt.status.Terminal() != tt.terminal {
				t.Errorf("%s.Terminal() = %v, want %v", tt.status, tt.status.Terminal(), tt.terminal)
			}
			if !tt.status.Valid() {
				t.Errorf("%s should be valid", tt.status)
			}
		})
	}

	if AlertStatus("CLOSED").Valid() {
		t.Error("CLOSED should be invalid")
	}
}
