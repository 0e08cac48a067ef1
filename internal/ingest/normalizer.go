// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package ingest normalizes raw tabular log input into canonical LogRecord
// entities. Parsing is tolerant: a malformed optional field becomes an empty
// value, a row missing the mandatory source IP is discarded and counted,
// and a single bad row never aborts the stream. Only total input corruption
// (an unreadable stream) is a fatal error.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/models"
)

// Sentinel errors for per-row discard reasons.
var (
	// ErrMissingSourceIP marks a row without the mandatory source_ip column.
	ErrMissingSourceIP = errors.New("row is missing source_ip")

	// ErrUnparseableTimestamp marks a row whose timestamp matched no known
	// format while the discard fallback policy is active.
	ErrUnparseableTimestamp = errors.New("timestamp matched no known format")
)

// TimestampPolicy selects what happens to a row whose timestamp matches no
// known format.
//
// Substituting the processing time mislabels garbled timestamps as "now"
// and can corrupt date-range queries downstream, so the substitution is
// explicit, logged, and counted. FallbackDiscard drops such rows instead.
type TimestampPolicy int

const (
	// FallbackNow substitutes the processing time and flags the record.
	FallbackNow TimestampPolicy = iota

	// FallbackDiscard discards rows with unparseable timestamps.
	FallbackDiscard
)

// gzipMagic is the two-byte gzip stream header.
var gzipMagic = []byte{0x1f, 0x8b}

// Stats counts per-stream normalization outcomes.
type Stats struct {
	// Produced is the number of valid records emitted.
	Produced int `json:"produced"`

	// Skipped is the number of rows discarded.
	Skipped int `json:"skipped"`

	// TimestampFallbacks is the number of records that received the
	// processing time because their timestamp was unparseable.
	TimestampFallbacks int `json:"timestamp_fallbacks"`
}

// Options configures a Reader.
type Options struct {
	// UploadedBy is the uploader identity stamped on every record.
	UploadedBy string

	// FileName is the source label stamped on every record.
	FileName string

	// TimestampPolicy is the unparseable-timestamp policy. Default FallbackNow.
	TimestampPolicy TimestampPolicy

	// Now overrides the clock, for tests. Default time.Now.
	Now func() time.Time
}

// Reader lazily normalizes one CSV stream into LogRecords. It is not safe
// for concurrent use. Output order matches input order.
type Reader struct {
	csv    *csv.Reader
	opts   Options
	header map[string]int
	stats  Stats
}

// NewReader creates a Reader over r. Gzip-compressed input is detected by
// its magic bytes and decompressed transparently. The first row must be a
// header naming columns after the LogRecord field names (source_ip,
// destination_ip, timestamp, ...).
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && bytes.Equal(magic, gzipMagic) {
		gz, gzErr := gzip.NewReader(br)
		if gzErr != nil {
			return nil, fmt.Errorf("open gzip stream: %w", gzErr)
		}
		br = bufio.NewReader(gz)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	headerRow, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &Reader{csv: cr, opts: opts, header: header}, nil
}

// Next returns the next valid LogRecord. Discarded rows are counted and
// skipped, never surfaced as errors. Returns io.EOF at end of input; any
// other error means the stream itself is unreadable.
func (r *Reader) Next() (*models.LogRecord, error) {
	for {
		row, err := r.csv.Read()
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				r.stats.Skipped++
				logging.Warn().Int("line", parseErr.Line).Err(err).Msg("skipping malformed csv row")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec, err := r.normalize(row)
		if err != nil {
			r.stats.Skipped++
			logging.Debug().Err(err).Msg("discarding row")
			continue
		}

		r.stats.Produced++
		return rec, nil
	}
}

// ReadAll drains the stream and returns every valid record.
func (r *Reader) ReadAll() ([]*models.LogRecord, error) {
	var records []*models.LogRecord
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Stats returns the counts accumulated so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// normalize maps one row to a LogRecord or a discard reason.
func (r *Reader) normalize(row []string) (*models.LogRecord, error) {
	sourceIP := r.stringField(row, "source_ip")
	if sourceIP == "" {
		return nil, ErrMissingSourceIP
	}

	now := r.opts.Now()
	rec := &models.LogRecord{
		ID:              uuid.New().String(),
		SourceIP:        sourceIP,
		DestinationIP:   r.stringField(row, "destination_ip"),
		SourcePort:      r.intField(row, "source_port"),
		DestinationPort: r.intField(row, "destination_port"),
		Protocol:        r.stringField(row, "protocol"),
		PacketSize:      r.int64Field(row, "packet_size"),
		Action:          r.stringField(row, "action"),
		BytesSent:       r.int64Field(row, "bytes_sent"),
		BytesReceived:   r.int64Field(row, "bytes_received"),
		Duration:        r.int64Field(row, "duration"),
		UserAgent:       r.stringField(row, "user_agent"),
		RequestMethod:   r.stringField(row, "request_method"),
		RequestURL:      r.stringField(row, "request_url"),
		ResponseCode:    r.intField(row, "response_code"),
		Country:         r.stringField(row, "country"),
		Region:          r.stringField(row, "region"),
		City:            r.stringField(row, "city"),
		UploadedBy:      r.opts.UploadedBy,
		FileName:        r.opts.FileName,
		UploadedAt:      now,
	}

	ts, ok := ParseTimestamp(r.stringField(row, "timestamp"))
	switch {
	case ok:
		rec.Timestamp = ts
	case r.opts.TimestampPolicy == FallbackDiscard:
		return nil, ErrUnparseableTimestamp
	default:
		rec.Timestamp = now
		rec.TimestampFallback = true
		r.stats.TimestampFallbacks++
		logging.Warn().
			Str("source_ip", sourceIP).
			Str("file", r.opts.FileName).
			Msg("timestamp unparseable, falling back to processing time")
	}

	return rec, nil
}

// stringField returns the trimmed value of a named column, or "" when the
// column is absent from the header or the row.
func (r *Reader) stringField(row []string, name string) string {
	idx, ok := r.header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// intField parses an optional integer column. Unparseable values become
// nil, not zero, so zero and unknown stay distinguishable.
func (r *Reader) intField(row []string, name string) *int {
	s := r.stringField(row, name)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// int64Field parses an optional 64-bit integer column, nil on failure.
func (r *Reader) int64Field(row []string, name string) *int64 {
	s := r.stringField(row, name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
