package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogRequest logs every served request once it is done. Server errors are
// logged as warnings, client errors at debug and the rest at trace level.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			resp := &responseWriter{w, http.StatusOK}

			next.ServeHTTP(resp, r)

			entry := log.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   resp.statusCode,
				"duration": time.Since(begin).Round(time.Microsecond).String(),
				"ua":       r.Header.Get("User-Agent"),
			})
			switch {
			case resp.statusCode >= http.StatusInternalServerError:
				entry.Warn("request failed")
			case resp.statusCode >= http.StatusBadRequest:
				entry.Debug("request rejected")
			default:
				entry.Trace("request served")
			}
		})
	}
}
