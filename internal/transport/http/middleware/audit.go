package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/token-check-api/internal/audit"
)

// AuditRequests records a REQUEST audit event for every API call once the
// response is written. Recording is advisory and never affects the response.
func AuditRequests(rec audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			rec.Record(r.Context(), audit.Event{
				Kind:    audit.KindRequest,
				Message: fmt.Sprintf("%s %s %d in %dms", r.Method, r.URL.Path, ww.Status(), duration.Milliseconds()),
				Data: map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      ww.Status(),
					"duration_ms": duration.Milliseconds(),
				},
			})
		})
	}
}
