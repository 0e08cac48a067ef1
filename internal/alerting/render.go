// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package alerting

import (
	"fmt"
	"strings"

	"github.com/atelier-sec/vigil/internal/models"
)

// alertTitles is the total mapping from threat type to human-readable alert
// title. Types absent from the table fall back to "<type> Detected" with
// underscores replaced by spaces.
var alertTitles = map[models.ThreatType]string{
	models.ThreatMalware:            "Malware Activity Detected",
	models.ThreatPhishing:           "Phishing Attempt Detected",
	models.ThreatDDoS:               "DDoS Attack Detected",
	models.ThreatBruteForce:         "Brute Force Attack Detected",
	models.ThreatSQLInjection:       "SQL Injection Attempt Detected",
	models.ThreatXSS:                "XSS Attack Detected",
	models.ThreatUnauthorizedAccess: "Unauthorized Access Attempt",
	models.ThreatDataExfiltration:   "Data Exfiltration Detected",
	models.ThreatPortScan:           "Port Scanning Activity",
	models.ThreatBotnet:             "Botnet Activity Detected",
	models.ThreatRansomware:         "Ransomware Activity Detected",
	models.ThreatInsiderThreat:      "Insider Threat Detected",
	models.ThreatAPT:                "Advanced Persistent Threat",
}

// AlertTitle returns the alert title for a threat type.
func AlertTitle(t models.ThreatType) string {
	if title, ok := alertTitles[t]; ok {
		return title
	}
	return strings.ReplaceAll(string(t), "_", " ") + " Detected"
}

// AlertMessage interpolates the prediction's description, source address,
// confidence percentage, risk score, and recommended action into one
// sentence.
func AlertMessage(pred *models.ThreatPrediction, rec *models.LogRecord) string {
	confidence := fmt.Sprintf("%.1f%%", pred.ConfidenceScore*100)
	return fmt.Sprintf("%s from IP %s (Confidence: %s, Risk Score: %.1f). %s",
		pred.Description, rec.SourceIP, confidence, pred.RiskScore, pred.RecommendedAction)
}

// AffectedSystems formats the destination as "<ip>:<port>" when both are
// known, the bare destination address when only that is known, else
// "Unknown".
func AffectedSystems(rec *models.LogRecord) string {
	switch {
	case rec.DestinationIP != "" && rec.DestinationPort != nil:
		return fmt.Sprintf("%s:%d", rec.DestinationIP, *rec.DestinationPort)
	case rec.DestinationIP != "":
		return rec.DestinationIP
	default:
		return "Unknown"
	}
}
