package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/transport"
)

const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects requests that declare a body above maxBytes and caps the
// rest with http.MaxBytesReader. It must run before anything that reads the
// body.
func BodyLimit(maxBytes int64, logger *slog.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	base := transport.NewBaseHandler(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				base.Logger.WarnContext(r.Context(), "request body too large",
					"content_length", r.ContentLength,
					"limit", maxBytes)
				base.WriteAppError(w, r, internal.ErrPayloadTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
