package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/access-control/internal"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = ginkgo.Describe("RequestID", func() {
	ginkgo.It("reuses an incoming trace id and exposes it to chi", func() {
		var seen string
		h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = chiMiddleware.GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceIDHeader, "trace-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		gomega.Expect(seen).To(gomega.Equal("trace-123"))
		gomega.Expect(rec.Header().Get(TraceIDHeader)).To(gomega.Equal("trace-123"))
	})

	ginkgo.It("mints a trace id when none is sent", func() {
		rec := httptest.NewRecorder()
		RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(rec.Header().Get(TraceIDHeader)).To(gomega.HaveLen(36))
	})
})

var _ = ginkgo.Describe("ClientIP", func() {
	ginkgo.It("stores the remote host without its port", func() {
		var ip string
		h := ClientIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			ip = internal.ClientIPFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:51234"
		h.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(ip).To(gomega.Equal("192.0.2.10"))
	})
})

var _ = ginkgo.Describe("RecoveryMiddleware", func() {
	ginkgo.It("answers with the generic server error and hides the panic value", func() {
		h := RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("db password is hunter2")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Error en el servidor"))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("hunter2"))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware", func() {
	ginkgo.It("masks credentials in logged bodies but passes the body on intact", func() {
		var logs bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&logs, nil))

		var got map[string]string
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusUnauthorized)
		}))

		body := `{"correo":"a@x.com","contrasena":"hunter2"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Cookie", "session=abc")
		h.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(got).To(gomega.HaveKeyWithValue("contrasena", "hunter2"))
		gomega.Expect(logs.String()).NotTo(gomega.ContainSubstring("hunter2"))
		gomega.Expect(logs.String()).NotTo(gomega.ContainSubstring("session=abc"))
		gomega.Expect(logs.String()).To(gomega.ContainSubstring(`"status_code":401`))
		gomega.Expect(logs.String()).To(gomega.ContainSubstring(`"level":"WARN"`))
	})

	ginkgo.It("filters nested keys", func() {
		out := filterBody([]byte(`{"usuario":{"nombre":"Ana","password_hash":"x"},"items":[{"token":"t"}]}`))

		gomega.Expect(out).To(gomega.ContainSubstring(`"nombre":"Ana"`))
		gomega.Expect(out).NotTo(gomega.ContainSubstring(`"x"`))
		gomega.Expect(out).NotTo(gomega.ContainSubstring(`"t"`))
	})
})

var _ = ginkgo.Describe("CORS", func() {
	ginkgo.It("answers preflight for allowed origins with credentials enabled", func() {
		h := CORS("https://panel.example.com")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			ginkgo.Fail("preflight must not reach the handler")
		}))

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
		req.Header.Set("Origin", "https://panel.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(gomega.Equal("https://panel.example.com"))
		gomega.Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(gomega.Equal("true"))
	})

	ginkgo.It("does not reflect unknown origins", func() {
		h := CORS("https://panel.example.com")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		gomega.Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(gomega.BeEmpty())
	})
})

var _ = ginkgo.Describe("RateLimiter", func() {
	var (
		rl  *RateLimiter
		now time.Time
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		rl = NewRateLimiter(1, 2, discardLogger())
		rl.now = func() time.Time { return now }
	})

	ginkgo.It("allows a burst per IP then rejects with 429", func() {
		h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
			req.RemoteAddr = "198.51.100.1:4000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}

		gomega.Expect(codes).To(gomega.Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}))
		gomega.Expect(rl.Allow("198.51.100.2")).To(gomega.BeTrue())
	})

	ginkgo.It("refills over time", func() {
		gomega.Expect(rl.Allow("a")).To(gomega.BeTrue())
		gomega.Expect(rl.Allow("a")).To(gomega.BeTrue())
		gomega.Expect(rl.Allow("a")).To(gomega.BeFalse())

		now = now.Add(time.Second)
		gomega.Expect(rl.Allow("a")).To(gomega.BeTrue())
	})

	ginkgo.It("drops idle buckets", func() {
		rl.Allow("a")
		rl.Allow("b")
		gomega.Expect(rl.size()).To(gomega.Equal(2))

		now = now.Add(limiterIdleTTL + 2*time.Minute)
		rl.Allow("c")
		gomega.Expect(rl.size()).To(gomega.Equal(1))
	})
})

var _ = ginkgo.Describe("TrustedRealIP", func() {
	serve := func(trusted []*net.IPNet, remoteAddr string) string {
		var ip string
		h := TrustedRealIP(trusted)(ClientIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			ip = internal.ClientIPFromContext(r.Context())
		})))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		req.Header.Set("X-Forwarded-For", "198.51.100.7")
		req.Header.Set("X-Real-IP", "198.51.100.8")
		h.ServeHTTP(httptest.NewRecorder(), req)
		return ip
	}

	ginkgo.It("ignores forwarding headers when no proxy is trusted", func() {
		gomega.Expect(serve(nil, "192.0.2.10:5000")).To(gomega.Equal("192.0.2.10"))
	})

	ginkgo.It("ignores forwarding headers from an untrusted peer", func() {
		_, proxies, _ := net.ParseCIDR("10.0.0.0/8")
		gomega.Expect(serve([]*net.IPNet{proxies}, "192.0.2.10:5000")).To(gomega.Equal("192.0.2.10"))
	})

	ginkgo.It("takes the forwarded address from a trusted peer", func() {
		_, proxies, _ := net.ParseCIDR("10.0.0.0/8")
		gomega.Expect(serve([]*net.IPNet{proxies}, "10.1.2.3:5000")).To(gomega.Equal("198.51.100.8"))
	})
})

var _ = ginkgo.Describe("BodyLimit", func() {
	var reached bool

	chain := func(limit int64) http.Handler {
		reached = false
		return BodyLimit(limit, discardLogger())(LoggingMiddleware(discardLogger())(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusNoContent)
			})))
	}

	ginkgo.It("rejects a declared length above the limit", func() {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
		rec := httptest.NewRecorder()
		chain(10).ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusRequestEntityTooLarge))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("PAYLOAD_TOO_LARGE"))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("stops an undeclared body at the limit", func() {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("x", 100))))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		chain(10).ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusRequestEntityTooLarge))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("lets bodies within the limit through", func() {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
		rec := httptest.NewRecorder()
		chain(0).ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(reached).To(gomega.BeTrue())
	})
})
