package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zap.DebugLevel)
	previous := L()
	Set(zap.New(core))
	t.Cleanup(func() { Set(previous) })
	return logs
}

func TestWithCarriesFields(t *testing.T) {
	logs := observe(t)

	ctx := With(context.Background(), zap.String("session", "s-1"))
	WithContext(ctx).Info("expanded")
	WithContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "s-1", entries[0].ContextMap()["session"])
	require.NotContains(t, entries[1].ContextMap(), "session")
}

func TestMiddlewareLogsRequests(t *testing.T) {
	logs := observe(t)

	var seen string
	h := Middleware(func() string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WithContext(r.Context()).Debug("inside")
		seen = w.Header().Get("X-Request-ID")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	require.Equal(t, "req-1", seen)
	require.Equal(t, http.StatusTeapot, rec.Code)

	done := logs.FilterMessage("request completed").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "/api/v1/state", fields["path"])
	require.EqualValues(t, http.StatusTeapot, fields["status"])
	require.Len(t, logs.FilterMessage("inside").All(), 1)
}

func TestInitFallsBackToWarn(t *testing.T) {
	previous := L()
	t.Cleanup(func() { Set(previous) })

	require.NoError(t, Init(Config{Level: "loud", Format: "json", Output: "stderr"}))
	require.True(t, L().Core().Enabled(zap.WarnLevel))
	require.False(t, L().Core().Enabled(zap.InfoLevel))
}
