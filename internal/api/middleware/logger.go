package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"aegis-secure/pkg/logger"
)

const contextKeyAccess ContextKey = "access_log"

// accessEntry collects fields set by inner middleware for the access log line.
// Inner layers derive new request contexts, so the entry is shared by pointer.
type accessEntry struct {
	userID string
}

func recordUser(ctx context.Context, userID string) {
	if e, ok := ctx.Value(contextKeyAccess).(*accessEntry); ok {
		e.userID = userID
	}
}

// Logger returns a middleware that writes one access log line per request.
// Server errors log at error level and client errors at warn.
func Logger(log *logger.Logger) func(next http.Handler) http.Handler {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			entry := &accessEntry{}
			r = r.WithContext(context.WithValue(r.Context(), contextKeyAccess, entry))
			start := time.Now()

			defer func() {
				status := ww.Status()
				var event *zerolog.Event
				switch {
				case status >= http.StatusInternalServerError:
					event = log.Error()
				case status >= http.StatusBadRequest:
					event = log.Warn()
				default:
					event = log.Info()
				}

				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				if entry.userID != "" {
					event = event.Str("user_id", entry.userID)
				}

				event.
					Str("method", r.Method).
					Str("route", route).
					Str("remote_addr", r.RemoteAddr).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
