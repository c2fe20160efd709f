package zapchi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerRecordsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	h := Logger(zap.New(core), "http")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?code=secret", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()

	assert.Equal(t, "Got Request", entry.Message)
	assert.Equal(t, "http", entry.LoggerName)
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/callback", fields["path"])
	assert.Equal(t, int64(len("short and stout")), fields["size"])
	assert.Equal(t, rec.Header().Get("X-Request-Id"), fields["reqId"])

	for _, v := range fields {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "secret", "oauth codes must not be logged")
		}
	}
}

func TestLoggerNil(t *testing.T) {
	assert.Panics(t, func() { Logger(nil, "") })
}
