package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/pkg"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500. API clients get a JSON
// error body, the dashboard gets plain text.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				// the server aborts the connection on this one
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Errorf("panic while serving request: %v\n%s", recovered, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				if strings.HasPrefix(r.URL.Path, "/api/") || pkg.IsJSONRequest(r) {
					pkg.WriteResponse(w, pkg.ContentType.JSON, `{"error":"internal error"}`, http.StatusInternalServerError)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
