package middleware

import (
	"net/http"
	"time"

	"github.com/sakif/whispering-network/internal/metrics"
)

// Metrics records request count, latency and in-flight requests. Requests
// are labelled with the chi route pattern so /api/messages/1 and
// /api/messages/2 share one series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		wrapped := wrap(w)

		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
	})
}
