// Package middleware provides HTTP middleware components.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const requestIDKey contextKey = "request_id"

// Correlation headers. X-Request-ID is caller-supplied or generated here;
// X-Trace-ID echoes the active trace so clients can hand either id to
// support and land on the same span.
const (
	requestIDHeader = "X-Request-ID"
	traceIDHeader   = "X-Trace-ID"
)

// RequestID returns a middleware that assigns each request an id and
// correlates it with the active trace span. It must run inside Tracing so
// the server span exists when it fires.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set(requestIDHeader, requestID)

			// Tag the server span with the request id and expose the trace
			// id back to the caller. A noop provider yields an invalid span
			// context and both steps are skipped.
			if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
				trace.SpanFromContext(ctx).SetAttributes(
					attribute.String("sidechain.request_id", requestID),
				)
				w.Header().Set(traceIDHeader, spanCtx.TraceID().String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
