// Package httpapi exposes the layout service over JSON HTTP.
//
//	GET  /api/layout?path=/docs&device=mobile   load (creating on first read)
//	POST /api/layout {"path":"/docs","left_width":400}   merge and return
//	GET  /health   200 OK, or 503 when the store is unreachable
//
// The caller's identity is the X-User-ID header; without it requests act
// for the "default" user.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/settings"
	"github.com/roach88/slipstream/internal/store"
)

// UserHeader carries the opaque caller identity.
const UserHeader = "X-User-ID"

// LayoutService is the part of *layout.Service the handlers use.
type LayoutService interface {
	Load(ctx context.Context, r layout.Request) (store.Record, error)
	Update(ctx context.Context, r layout.Request, partial settings.Document) (store.Record, error)
	Ping(ctx context.Context) error
}

// allowedMethods lists the methods each route accepts, for 405 responses.
var allowedMethods = map[string]string{
	"/api/layout": "GET, POST",
	"/health":     "GET",
}

// NewRouter wires the API routes onto a gorilla/mux router.
func NewRouter(svc LayoutService, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handlers{svc: svc, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/layout", h.getLayout).Methods(http.MethodGet)
	r.HandleFunc("/api/layout", h.postLayout).Methods(http.MethodPost)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.Use(logRequests(logger))
	return r
}

// logRequests logs one line per matched request.
func logRequests(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
