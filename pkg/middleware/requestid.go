package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/cord19search/searchplatform/pkg/logger"
)

// headerRequestID is the header a caller may set to propagate an
// existing request ID; a new one is generated when absent.
const headerRequestID = "X-Request-ID"

// RequestID stamps every request with an ID (reused from the incoming
// header when present), stores it in the request context via
// pkg/logger, and echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = generateRequestID()
		}
		w.Header().Set(headerRequestID, id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID stamped by RequestID, or "" if
// none is present in ctx.
func GetRequestID(ctx context.Context) string {
	return logger.RequestIDFromContext(ctx)
}

func generateRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
