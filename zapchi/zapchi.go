// Modified version of zapchi for guildpass
package zapchi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger is a Chi middleware that logs each request recived using
// the provided Zap logger.
// Provide a name if you want to set the caller (`.Named()`)
// otherwise leave blank.
func Logger(l *zap.Logger, name string) func(next http.Handler) http.Handler {
	if l == nil {
		panic("nil logger passed to zapchi")
	}

	logger := l.WithOptions(zap.AddCallerSkip(1)).Named(name)

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqId := middleware.GetReqID(r.Context())

			if reqId == "" {
				reqId = uuid.NewString()
			}

			w.Header().Set("X-Request-Id", reqId)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()
			next.ServeHTTP(ww, r)

			// the query string carries the one time oauth code
			logger.Info(
				"Got Request",
				zap.Int("status", ww.Status()),
				zap.String("statusText", http.StatusText(ww.Status())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("reqIp", r.RemoteAddr),
				zap.String("protocol", r.Proto),
				zap.Int("size", ww.BytesWritten()),
				zap.String("latency", time.Since(t1).String()),
				zap.String("userAgent", r.UserAgent()),
				zap.String("reqId", reqId),
			)
		}
		return http.HandlerFunc(fn)
	}
}
