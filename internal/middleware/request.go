package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dangerclosesec/pathway/internal/audit"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rollbar/rollbar-go"
)

// RequestMeta stores the request id and client address for the transition
// journal. It must run after chi's RequestID middleware.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithMeta(r.Context(), audit.RequestMeta{
			RequestID: chimw.GetReqID(r.Context()),
			ClientIP:  ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"requestID", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Recovery turns panics into 500 responses. When reportToRollbar is set the
// panic is also sent to Rollbar, which must already be configured.
func Recovery(logger *slog.Logger, reportToRollbar bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					err := errors.New("panic recovered")
					logger.Error("panic recovered",
						"error", err,
						"panic", rvr,
						"stack", string(debug.Stack()),
						"requestID", chimw.GetReqID(r.Context()),
					)
					if reportToRollbar {
						rollbar.RequestError(rollbar.CRIT, r, fmt.Errorf("%w: %v", err, rvr))
					}

					respondWithError(w, http.StatusInternalServerError, "error encountered")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
