package middleware

import (
	"net/http"
	"time"
)

const (
	jsonTimeoutBody = `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`
	htmlTimeoutBody = `<!doctype html><title>Timeout</title><p>The request took too long. Please try again.</p>`
)

// Timeout bounds the whole handler, upstream API calls included. JSON routes
// get the envelope body, pages a short HTML notice.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		jsonHandler := http.TimeoutHandler(next, timeout, jsonTimeoutBody)
		htmlHandler := http.TimeoutHandler(next, timeout, htmlTimeoutBody)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wantsJSON(r) {
				jsonHandler.ServeHTTP(w, r)
				return
			}
			htmlHandler.ServeHTTP(w, r)
		})
	}
}
