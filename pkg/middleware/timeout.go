package middleware

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	pkgerrors "github.com/woodway-ua/photoindex/pkg/errors"
	"github.com/woodway-ua/photoindex/pkg/logger"
)

// Timeout bounds each request with a context deadline. When the deadline
// passes before the handler has produced any output, the client gets a 504
// and later handler writes are discarded.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeoutCause(r.Context(), limit, pkgerrors.ErrTimeout)
			defer cancel()

			gw := &guardedWriter{inner: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !gw.abandon() {
					// The handler already wrote; nothing useful to add.
					return
				}
				logger.FromContext(ctx).Warn("request timed out",
					"method", r.Method,
					"path", r.URL.Path,
					"limit", limit,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				io.WriteString(w, `{"error":"request timeout"}`)
			}
		})
	}
}

// guardedWriter serialises access to the underlying ResponseWriter so a
// timed-out handler and the timeout response never interleave.
type guardedWriter struct {
	mu        sync.Mutex
	inner     http.ResponseWriter
	wrote     bool
	abandoned bool
}

func (g *guardedWriter) Header() http.Header {
	return g.inner.Header()
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return
	}
	g.wrote = true
	g.inner.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return len(b), nil
	}
	g.wrote = true
	return g.inner.Write(b)
}

// abandon cuts the handler off and reports whether the timeout response may
// still be written.
func (g *guardedWriter) abandon() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wrote {
		return false
	}
	g.abandoned = true
	return true
}
