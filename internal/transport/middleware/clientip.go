package middleware

import (
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/pkg/logger"
)

// ClientIP stores the caller address for services that key on it (login
// guard, audit events). Run it after TrustedRealIP.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := transport.ClientIP(r)
		ctx := internal.ContextWithClientIP(r.Context(), ip)
		ctx = logger.With(ctx, "client_ip", ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
