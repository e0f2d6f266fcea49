package lnaddress

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

// requestIDKey is the context key for the request id.
const requestIDKey contextKey = "request_id"

// RequestIDHeader is the response header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// RequestID returns the id of the request ctx belongs to, or an empty string.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}

	return ""
}

// requestID tags each request with a fresh id. Ids coming from the client are
// ignored since they end up in the backend's bookkeeping.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusWriter) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

// requestLogger logs every request once it's served. Query strings are left
// out since they carry payer comments.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logf := log.Debugf
		switch {
		case sw.status >= 500:
			logf = log.Errorf
		case sw.status >= 400:
			logf = log.Warnf
		}

		logf("[%s] %s %s -> %d (%v)", RequestID(r.Context()), r.Method,
			r.URL.Path, sw.status, time.Since(start))
	})
}

// recoverer turns a panicking handler into a 500 for that request only.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				log.Criticalf("[%s] panic serving %s: %v\n%s",
					RequestID(r.Context()), r.URL.Path, rvr,
					debug.Stack())

				writeJSON(w, http.StatusInternalServerError, &Error{
					Status: ErrorStatus,
					Reason: http.StatusText(
						http.StatusInternalServerError,
					),
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
