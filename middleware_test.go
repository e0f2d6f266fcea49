package lnaddress

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

// captureLog sends package log output to a buffer for the rest of the test.
func captureLog(t *testing.T, level btclog.Level) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	logger := btclog.NewBackend(&buf).Logger(Subsystem)
	logger.SetLevel(level)

	UseLogger(logger)
	t.Cleanup(DisableLog)

	return &buf
}

func TestRequestLogger(t *testing.T) {
	buf := captureLog(t, btclog.LevelDebug)

	handler := requestID(requestLogger(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	)))

	req := httptest.NewRequest(
		http.MethodGet, "/.well-known/lnurlp/alice/callback?"+
			"amount=1000&comment=secret-note", nil,
	)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	require.Contains(t, out, "[ERR] LNAD")
	require.Contains(t, out, rec.Header().Get(RequestIDHeader))
	require.Contains(t, out, "/.well-known/lnurlp/alice/callback -> 502")
	require.NotContains(t, out, "secret-note")
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "[DBG]"},
		{http.StatusNotFound, "[WRN]"},
		{http.StatusInternalServerError, "[ERR]"},
	}

	for _, test := range tests {
		buf := captureLog(t, btclog.LevelDebug)

		status := test.status
		handler := requestLogger(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			},
		))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		require.Contains(t, buf.String(), test.level)
	}
}

func TestStatusWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := sw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, sw.status)

	// Only the first status counts.
	sw.WriteHeader(http.StatusInternalServerError)
	require.Equal(t, http.StatusOK, sw.status)
}

func TestRequestIDUnique(t *testing.T) {
	var ids []string
	handler := requestID(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			ids = append(ids, RequestID(r.Context()))
		},
	))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "client-chosen")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, ids, 2)
	require.NotEqual(t, ids[0], ids[1])
	require.NotContains(t, ids, "client-chosen")
}
