package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1)(okHandler())

	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/prices", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusTeapot, request().Code)

	limited := request()
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.JSONEq(t, `{"error":"rate limit exceeded"}`, limited.Body.String())
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	h := LoggingMiddleware(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	_, err := rw.Write([]byte("ok"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rw.statusCode)
}
