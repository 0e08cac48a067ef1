// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package alerting

import (
	"testing"

	"github.com/atelier-sec/vigil/internal/models"
)

func TestAlertTitleTable(t *testing.T) {
	tests := []struct {
		threatType models.ThreatType
		want       string
	}{
		{models.ThreatMalware, "Malware Activity Detected"},
		{models.ThreatPhishing, "Phishing Attempt Detected"},
		{models.ThreatDDoS, "DDoS Attack Detected"},
		{models.ThreatBruteForce, "Brute Force Attack Detected"},
		{models.ThreatSQLInjection, "SQL Injection Attempt Detected"},
		{models.ThreatXSS, "XSS Attack Detected"},
		{models.ThreatUnauthorizedAccess, "Unauthorized Access Attempt"},
		{models.ThreatDataExfiltration, "Data Exfiltration Detected"},
		{models.ThreatPortScan, "Port Scanning Activity"},
		{models.ThreatBotnet, "Botnet Activity Detected"},
		{models.ThreatRansomware, "Ransomware Activity Detected"},
		{models.ThreatInsiderThreat, "Insider Threat Detected"},
		{models.ThreatAPT, "Advanced Persistent Threat"},
		// Fallback arm: underscores become spaces.
		{models.ThreatSuspiciousActivity, "SUSPICIOUS ACTIVITY Detected"},
	}

	for _, tt := range tests {
		t.Run(string(tt.threatType), func(t *testing.T) {
			if got := AlertTitle(tt.threatType); got != tt.want {
				t.Errorf("AlertTitle(%s) = %q, want %q", tt.threatType, got, tt.want)
			}
		})
	}
}

func TestAffectedSystems(t *testing.T) {
	port := 443

	tests := []struct {
		name string
		rec  models.LogRecord
		want string
	}{
		{"ip and port", models.LogRecord{DestinationIP: "10.1.1.1", DestinationPort: &port}, "10.1.1.1:443"},
		{"ip only", models.LogRecord{DestinationIP: "10.1.1.1"}, "10.1.1.1"},
		{"neither", models.LogRecord{}, "Unknown"},
		{"port without ip", models.LogRecord{DestinationPort: &port}, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AffectedSystems(&tt.rec); got != tt.want {
				t.Errorf("AffectedSystems = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAlertMessageFormat(t *testing.T) {
	pred := &models.ThreatPrediction{
		Description:       "Unusual data transfer volume",
		ConfidenceScore:   0.923,
		RiskScore:         88.25,
		RecommendedAction: "Quarantine the host",
	}
	rec := &models.LogRecord{SourceIP: "203.0.113.7"}

	want := "Unusual data transfer volume from IP 203.0.113.7 (Confidence: 92.3%, Risk Score: 88.2). Quarantine the host"
	if got := AlertMessage(pred, rec); got != want {
		t.Errorf("AlertMessage = %q, want %q", got, want)
	}
}
