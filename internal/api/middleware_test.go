package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestCORSAnswersPreflight(t *testing.T) {
	called := false
	h := CORS("https://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/v1/me/dashboard", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	require.False(t, called)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/me/dashboard", nil))
	require.True(t, called)
	require.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/score/preview", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, "http request", entry.Message)
	require.Equal(t, http.StatusTeapot, entry.Data["status"])
	require.Equal(t, "/v1/score/preview", entry.Data["path"])
	require.Equal(t, http.MethodPost, entry.Data["method"])
}
