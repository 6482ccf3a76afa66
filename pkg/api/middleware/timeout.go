package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ExpressedAi/Sidechain/pkg/api/response"
)

// Timeout returns a middleware that cancels the request context after the
// given duration and answers 504 if the handler has not produced output by
// then. Once the deadline response is written, any late handler writes are
// discarded instead of racing onto the wire.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				// The handler may have won the race and written already;
				// only answer 504 if we got there first.
				if tw.markTimedOut() {
					response.Error(w,
						http.StatusGatewayTimeout,
						response.ErrCodeGatewayTimeout,
						"Request timeout",
						GetRequestID(r.Context()),
					)
				}
			}
		})
	}
}

// timeoutWriter suppresses handler writes that land after the deadline
// response has gone out.
type timeoutWriter struct {
	http.ResponseWriter

	mu       sync.Mutex
	timedOut bool
	wrote    bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return
	}
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return len(b), nil
	}
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

// markTimedOut flips the writer into discard mode. It reports false when the
// handler already wrote, in which case the 504 must not be sent.
func (tw *timeoutWriter) markTimedOut() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wrote {
		return false
	}
	tw.timedOut = true
	return true
}
