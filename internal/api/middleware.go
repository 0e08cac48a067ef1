// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/klauspost/compress/gzip"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
)

// MiddlewareConfig selects the cross-cutting behavior of the HTTP layer.
type MiddlewareConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// Middleware builds the shared middleware stack from one config.
type Middleware struct {
	cfg MiddlewareConfig
}

// NewMiddleware creates a Middleware factory.
func NewMiddleware(cfg MiddlewareConfig) *Middleware {
	if cfg.RateLimitReqs <= 0 {
		cfg.RateLimitReqs = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	return &Middleware{cfg: cfg}
}

// CORS returns the cross-origin handler. An empty origin list denies
// all cross-origin requests.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Analyst"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// RateLimit limits requests per client IP using the configured window.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	return httprate.LimitByIP(m.cfg.RateLimitReqs, m.cfg.RateLimitWindow)
}

// RateLimitCustom limits requests per client IP with an explicit budget,
// for endpoints that need a tighter window than the default.
func (m *Middleware) RateLimitCustom(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requests, window)
}

// RequestID assigns each request an ID, stores it in the context for
// log correlation, and echoes it in the X-Request-ID header. An ID
// supplied by the client is kept.
func (m *Middleware) RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = logging.GenerateRequestID()
			}
			ctx := logging.ContextWithRequestID(r.Context(), id)
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityHeaders sets conservative browser defaults on every response.
func (m *Middleware) SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// gzipResponseWriter routes the body through a gzip writer while headers
// and status pass straight to the underlying ResponseWriter.
type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
	wroteHeader bool
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.Writer.Write(b)
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// Compression gzips responses for clients that accept it. WebSocket
// upgrades pass through untouched.
func (m *Middleware) Compression() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") ||
				r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			gz := gzipWriterPool.Get().(*gzip.Writer)
			defer gzipWriterPool.Put(gz)
			gz.Reset(w)
			defer func() {
				_ = gz.Close()
			}()

			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Del("Content-Length")

			next.ServeHTTP(&gzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
		})
	}
}

// Metrics records request duration labeled by method, route pattern and
// status. The chi route pattern keeps label cardinality bounded; raw
// paths with embedded IDs would not.
func (m *Middleware) Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}
