// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package models defines the core entities of the threat analysis pipeline:
// log records, threat predictions, alerts, and their enumerations.
package models

import "fmt"

// ThreatType is the closed enumeration of incident categories the scoring
// model can return. NORMAL means no threat was detected.
type ThreatType string

const (
	ThreatMalware            ThreatType = "MALWARE"
	ThreatPhishing           ThreatType = "PHISHING"
	ThreatDDoS               ThreatType = "DDoS"
	ThreatBruteForce         ThreatType = "BRUTE_FORCE"
	ThreatSQLInjection       ThreatType = "SQL_INJECTION"
	ThreatXSS                ThreatType = "XSS"
	ThreatSuspiciousActivity ThreatType = "SUSPICIOUS_ACTIVITY"
	ThreatDataExfiltration   ThreatType = "DATA_EXFILTRATION"
	ThreatUnauthorizedAccess ThreatType = "UNAUTHORIZED_ACCESS"
	ThreatPortScan           ThreatType = "PORT_SCAN"
	ThreatBotnet             ThreatType = "BOTNET"
	ThreatRansomware         ThreatType = "RANSOMWARE"
	ThreatInsiderThreat      ThreatType = "INSIDER_THREAT"
	ThreatAPT                ThreatType = "APT"
	ThreatNormal             ThreatType = "NORMAL"
)

// threatTypes is the membership set for validation.
var threatTypes = map[ThreatType]struct{}{
	ThreatMalware:            {},
	ThreatPhishing:           {},
	ThreatDDoS:               {},
	ThreatBruteForce:         {},
	ThreatSQLInjection:       {},
	ThreatXSS:                {},
	ThreatSuspiciousActivity: {},
	ThreatDataExfiltration:   {},
	ThreatUnauthorizedAccess: {},
	ThreatPortScan:           {},
	ThreatBotnet:             {},
	ThreatRansomware:         {},
	ThreatInsiderThreat:      {},
	ThreatAPT:                {},
	ThreatNormal:             {},
}

// Valid reports whether t is a member of the known enumeration.
func (t ThreatType) Valid() bool {
	_, ok := threatTypes[t]
	return ok
}

// ParseThreatType validates a raw string from an external source.
func ParseThreatType(s string) (ThreatType, error) {
	t := ThreatType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown threat type %q", s)
	}
	return t, nil
}

// ThreatSeverity is the ordinal severity enumeration.
// LOW < MEDIUM < HIGH < CRITICAL.
type ThreatSeverity string

const (
	SeverityLow      ThreatSeverity = "LOW"
	SeverityMedium   ThreatSeverity = "MEDIUM"
	SeverityHigh     ThreatSeverity = "HIGH"
	SeverityCritical ThreatSeverity = "CRITICAL"
)

// severityRanks defines the ordinal ordering.
var severityRanks = map[ThreatSeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Valid reports whether s is a member of the known enumeration.
func (s ThreatSeverity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Rank returns the ordinal position of the severity, -1 for unknown values.
func (s ThreatSeverity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is as severe as other or more so.
func (s ThreatSeverity) AtLeast(other ThreatSeverity) bool {
	return s.Rank() >= other.Rank()
}

// ParseThreatSeverity validates a raw string from an external source.
func ParseThreatSeverity(s string) (ThreatSeverity, error) {
	sev := ThreatSeverity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// AlertStatus is the alert lifecycle state machine's state set.
type AlertStatus string

const (
	AlertActive        AlertStatus = "ACTIVE"
	AlertAcknowledged  AlertStatus = "ACKNOWLEDGED"
	AlertResolved      AlertStatus = "RESOLVED"
	AlertFalsePositive AlertStatus = "FALSE_POSITIVE"
)

// Valid reports whether a is a member of the known enumeration.
func (a AlertStatus) Valid() bool {
	switch a {
	case AlertActive, AlertAcknowledged, AlertResolved, AlertFalsePositive:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
// RESOLVED and FALSE_POSITIVE are terminal.
func (a AlertStatus) Terminal() bool {
	return a == AlertResolved || a == AlertFalsePositive
}

// ParseAlertStatus validates a raw string from an external source.
func ParseAlertStatus(s string) (AlertStatus, error) {
	st := AlertStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown alert status %q", s)
	}
	return st, nil
}
