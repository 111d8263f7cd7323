package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"travel_genie/internal/adapters/observability"
)

const problemJSON = "application/problem+json"

const timeoutBody = `{"type":"about:blank","title":"Service Unavailable","status":503,"detail":"request timed out"}`

// Timeout answers with a 503 problem document once d has passed. The
// upstream call of a send is bounded separately and always finishes first.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			th.ServeHTTP(&timeoutWriter{ResponseWriter: w}, r)
		})
	}
}

// timeoutWriter labels the bare 503 that http.TimeoutHandler writes. A
// handler's own responses arrive with their Content-Type already copied in.
type timeoutWriter struct{ http.ResponseWriter }

func (w *timeoutWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", problemJSON)
	}
	w.ResponseWriter.WriteHeader(code)
}

// recorder captures the status a handler answered with.
type recorder struct {
	http.ResponseWriter
	status int
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Access records one metrics sample and one log line per request. Session
// routes also log the session id; metrics stay keyed by route pattern.
func Access(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			took := time.Since(start)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			observability.ObserveHTTP(route, r.Method, status, took)

			ev := l.Info()
			if status >= 500 {
				ev = l.Error()
			}
			if strings.HasPrefix(route, "/v1/sessions/") {
				ev = ev.Str("session", chi.URLParam(r, "id"))
			}
			ev.Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Dur("duration", took).
				Str("remote", clientIP(r)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http_request")
		})
	}
}

// clientIP strips the port; chimw.RealIP has already applied forwarding
// headers to RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
