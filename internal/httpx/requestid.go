package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 128
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	loggerKey
)

// RequestIDMiddleware propagates a caller supplied X-Request-Id or mints one,
// and attaches a logger tagged with it to the request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
	})
}

// ContextWithRequestID returns ctx carrying the request id and a logger tagged with it.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	l := log.With().Str("request_id", id).Logger()
	ctx = context.WithValue(ctx, requestIDKey, id)
	return context.WithValue(ctx, loggerKey, &l)
}

// RequestIDFrom returns the request id of r, or "" outside RequestIDMiddleware.
func RequestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// Logger returns the request scoped logger, falling back to the global one.
func Logger(r *http.Request) *zerolog.Logger {
	if l, ok := r.Context().Value(loggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}
