package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "3tcapital/ms_ecf_core/internal/infrastructure/context"
	"3tcapital/ms_ecf_core/internal/infrastructure/security"
)

// GenerationIDHeader carries the audit identifier of a generated document.
const GenerationIDHeader = "X-ECF-Generation-ID"

// statusRecorder remembers the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.size += int64(n)
	return n, err
}

// RequestLogger writes one access log line per request. It stores the chi
// request ID as the correlation ID and places a RequestInfo in the context so
// the JWT middleware can report the subject back. 5xx responses log at Error,
// 4xx at Warn, everything else at Info.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			ctx := ctxutil.WithCorrelationID(r.Context(), requestID)
			ctx, info := ctxutil.WithRequestInfo(ctx)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", rec.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1e3),
				slog.Int64("bytes", rec.size),
			}
			optional := []struct{ key, value string }{
				{"correlation_id", requestID},
				{"user_agent", r.UserAgent()},
				{"generation_id", rec.Header().Get(GenerationIDHeader)},
				{"subject", info.Subject()},
			}
			if r.URL.RawQuery != "" {
				optional = append(optional, struct{ key, value string }{"url", security.SanitizeURL(r.URL.String())})
			}
			for _, o := range optional {
				if o.value != "" {
					attrs = append(attrs, slog.String(o.key, o.value))
				}
			}

			log.LogAttrs(ctx, levelFor(rec.status), "HTTP request", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
