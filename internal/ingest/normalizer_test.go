// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package ingest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestReader(t *testing.T, input string, policy TimestampPolicy) *Reader {
	t.Helper()
	r, err := NewReader(strings.NewReader(input), Options{
		UploadedBy:      "analyst-1",
		FileName:        "traffic.csv",
		TimestampPolicy: policy,
		Now:             func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return r
}

func TestNormalizeFullRow(t *testing.T) {
	input := "source_ip,destination_ip,source_port,destination_port,protocol,packet_size,timestamp,action,bytes_sent,bytes_received,duration,user_agent,request_method,request_url,response_code,country,region,city\n" +
		"10.0.0.5,192.168.1.1,44321,443,TCP,1500,2026-03-01 08:30:00,ALLOW,2048,4096,350,Mozilla/5.0,GET,/login,200,DE,BE,Berlin\n"

	r := newTestReader(t, input, FallbackNow)
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	if rec.SourceIP != "10.0.0.5" {
		t.Errorf("SourceIP = %q", rec.SourceIP)
	}
	if rec.DestinationIP != "192.168.1.1" {
		t.Errorf("DestinationIP = %q", rec.DestinationIP)
	}
	if rec.SourcePort == nil || *rec.SourcePort != 44321 {
		t.Errorf("SourcePort = %v", rec.SourcePort)
	}
	if rec.DestinationPort == nil || *rec.DestinationPort != 443 {
		t.Errorf("DestinationPort = %v", rec.DestinationPort)
	}
	if rec.PacketSize == nil || *rec.PacketSize != 1500 {
		t.Errorf("PacketSize = %v", rec.PacketSize)
	}
	if rec.BytesSent == nil || *rec.BytesSent != 2048 {
		t.Errorf("BytesSent = %v", rec.BytesSent)
	}
	if rec.ResponseCode == nil || *rec.ResponseCode != 200 {
		t.Errorf("ResponseCode = %v", rec.ResponseCode)
	}
	want := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
	if rec.TimestampFallback {
		t.Error("TimestampFallback should be false for a parseable timestamp")
	}
	if rec.UploadedBy != "analyst-1" || rec.FileName != "traffic.csv" {
		t.Errorf("ingestion metadata = %q %q", rec.UploadedBy, rec.FileName)
	}
	if rec.City != "Berlin" {
		t.Errorf("City = %q", rec.City)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestEveryRecordGetsUniqueIdentity(t *testing.T) {
	input := "source_ip,timestamp\n" +
		"10.0.0.1,2026-03-01 08:30:00\n" +
		"10.0.0.2,2026-03-01 08:30:01\n" +
		"10.0.0.3,2026-03-01 08:30:02\n"

	r := newTestReader(t, input, FallbackNow)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	seen := make(map[string]bool)
	for i, rec := range records {
		if rec.ID == "" {
			t.Fatalf("record %d has empty ID", i)
		}
		if seen[rec.ID] {
			t.Fatalf("record %d reuses ID %q", i, rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestMissingSourceIPIsSkippedAndCounted(t *testing.T) {
	input := "source_ip,timestamp\n" +
		"10.0.0.5,2026-03-01 08:30:00\n" +
		",2026-03-01 08:31:00\n"

	r := newTestReader(t, input, FallbackNow)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	stats := r.Stats()
	if stats.Produced != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 produced 1 skipped", stats)
	}
}

func TestUnparseableIntBecomesNil(t *testing.T) {
	input := "source_ip,timestamp,source_port,bytes_sent\n" +
		"10.0.0.5,2026-03-01 08:30:00,not-a-port,many\n"

	r := newTestReader(t, input, FallbackNow)
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.SourcePort != nil {
		t.Errorf("SourcePort = %v, want nil", rec.SourcePort)
	}
	if rec.BytesSent != nil {
		t.Errorf("BytesSent = %v, want nil", rec.BytesSent)
	}
}

func TestTimestampFormats(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"space separated", "2026-03-01 08:30:00", time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"iso8601", "2026-03-01T08:30:00", time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"iso8601 fractional", "2026-03-01T08:30:00.250", time.Date(2026, 3, 1, 8, 30, 0, 250_000_000, time.UTC)},
		{"iso8601 utc marker", "2026-03-01T08:30:00Z", time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"us slashes", "03/01/2026 08:30:00", time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)},
		{"eu slashes", "25/03/2026 08:30:00", time.Date(2026, 3, 25, 8, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.value)
			if !ok {
				t.Fatalf("ParseTimestamp(%q) did not match", tt.value)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	if _, ok := ParseTimestamp("last tuesday"); ok {
		t.Error("garbage timestamp should not parse")
	}
	if _, ok := ParseTimestamp(""); ok {
		t.Error("empty timestamp should not parse")
	}
}

func TestTimestampFallbackNow(t *testing.T) {
	input := "source_ip,timestamp\n10.0.0.5,garbled\n"

	r := newTestReader(t, input, FallbackNow)
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !rec.Timestamp.Equal(fixedNow) {
		t.Errorf("Timestamp = %v, want processing time %v", rec.Timestamp, fixedNow)
	}
	if !rec.TimestampFallback {
		t.Error("TimestampFallback should be set")
	}
	if r.Stats().TimestampFallbacks != 1 {
		t.Errorf("TimestampFallbacks = %d, want 1", r.Stats().TimestampFallbacks)
	}
}

func TestTimestampFallbackDiscard(t *testing.T) {
	input := "source_ip,timestamp\n" +
		"10.0.0.5,garbled\n" +
		"10.0.0.6,2026-03-01 08:30:00\n"

	r := newTestReader(t, input, FallbackDiscard)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 1 || records[0].SourceIP != "10.0.0.6" {
		t.Fatalf("got %+v, want only 10.0.0.6", records)
	}
	if r.Stats().Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", r.Stats().Skipped)
	}
}

func TestOutputOrderMatchesInputOrder(t *testing.T) {
	input := "source_ip,timestamp\n" +
		"10.0.0.1,2026-03-01 08:00:00\n" +
		"10.0.0.2,2026-03-01 08:01:00\n" +
		"10.0.0.3,2026-03-01 08:02:00\n"

	r := newTestReader(t, input, FallbackNow)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, ip := range want {
		if records[i].SourceIP != ip {
			t.Errorf("records[%d].SourceIP = %q, want %q", i, records[i].SourceIP, ip)
		}
	}
}

func TestGzipInputIsDetected(t *testing.T) {
	plain := "source_ip,timestamp\n10.0.0.5,2026-03-01 08:30:00\n"

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(plain)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	r, err := NewReader(&buf, Options{Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.SourceIP != "10.0.0.5" {
		t.Errorf("SourceIP = %q", rec.SourceIP)
	}
}

func TestMissingOptionalColumnsYieldEmptyValues(t *testing.T) {
	input := "source_ip,timestamp\n10.0.0.5,2026-03-01 08:30:00\n"

	r := newTestReader(t, input, FallbackNow)
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.DestinationIP != "" || rec.Protocol != "" || rec.UserAgent != "" {
		t.Errorf("absent string columns should be empty: %+v", rec)
	}
	if rec.SourcePort != nil || rec.Duration != nil || rec.ResponseCode != nil {
		t.Errorf("absent numeric columns should be nil: %+v", rec)
	}
}
