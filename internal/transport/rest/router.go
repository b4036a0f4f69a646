package rest

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/dashboard"
	"github.com/frahmantamala/access-control/internal/metrics"
	"github.com/frahmantamala/access-control/internal/transport/middleware"
	"github.com/frahmantamala/access-control/internal/transport/openapi"
	"github.com/frahmantamala/access-control/internal/transport/swagger"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/go-chi/chi"
)

const openAPIPath = "/openapi.yml"

// SessionLoader puts the request's session into its context.
type SessionLoader interface {
	Middleware(next http.Handler) http.Handler
}

// Routes carries everything RegisterAllRoutes mounts. Metrics may be nil when
// metrics are disabled.
type Routes struct {
	Health    *HealthHandler
	Auth      *auth.Handler
	User      *user.Handler
	Dashboard *dashboard.Handler

	Sessions  SessionLoader
	RBAC      *auth.RBACAuthorization
	LoginRate *middleware.RateLimiter
	Validator *openapi.Validator
	Metrics   *metrics.Metrics

	MetricsPath    string
	AllowedOrigins string
	OpenAPISpec    []byte
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []*net.IPNet
	MaxBodyBytes   int64
}

func RegisterAllRoutes(router *chi.Mux, rt Routes, logger *slog.Logger) {
	if rt.Metrics != nil {
		router.Use(rt.Metrics.Instrument)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.TrustedRealIP(rt.TrustedProxies))
	router.Use(middleware.ClientIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.BodyLimit(rt.MaxBodyBytes, logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORS(rt.AllowedOrigins))

	router.Get(openAPIPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rt.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler(openAPIPath))

	if rt.Metrics != nil {
		router.Handle(rt.MetricsPath, rt.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", rt.Health.Health)
		r.Get("/ping", rt.Health.Ping)

		r.Group(func(sr chi.Router) {
			sr.Use(rt.Sessions.Middleware)

			validate := func(next http.Handler) http.Handler { return next }
			if rt.Validator != nil {
				validate = rt.Validator.Middleware
			}

			sr.Route("/auth", func(ar chi.Router) {
				// throttling and lockout come before body validation
				ar.With(rt.LoginRate.Middleware, rt.Auth.RejectLocked, validate).Post("/login", rt.Auth.Login)
				ar.With(validate).Post("/logout", rt.Auth.Logout)
			})

			sr.Group(func(pr chi.Router) {
				pr.Use(rt.User.RequireLogin)

				pr.Get("/users/me", rt.User.GetCurrentUser)
				pr.Get("/dashboard", rt.Dashboard.GetDashboard)

				pr.With(rt.RBAC.Middleware(auth.PermViewAccessLog)).Get("/accesses", rt.Dashboard.ListAccesses)
				pr.With(rt.RBAC.Middleware(auth.PermViewAlerts)).Get("/alerts", rt.Dashboard.ListAlerts)
			})
		})
	})
}
