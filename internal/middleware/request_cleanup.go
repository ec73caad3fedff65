package middleware

import (
	"io"
	"net/http"
)

// drain at most this much of an unread body, so keep-alive connections can be reused
const maxDrainBytes = 256 << 10

func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, maxDrainBytes))
				_ = r.Body.Close()
			}
		})
	}
}
