package internal_test

import (
	"net"
	"net/http"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/access-control/internal"
)

var _ = Describe("Config", func() {
	Describe("defaults", func() {
		It("matches the documented values", func() {
			cfg := internal.DefaultConfig()

			Expect(cfg.Database.Host).To(Equal("localhost"))
			Expect(cfg.Database.Port).To(Equal(5432))
			Expect(cfg.Database.User).To(Equal("postgres"))
			Expect(cfg.Database.Password).To(BeEmpty())
			Expect(cfg.Database.Name).To(Equal("control_acceso"))
			Expect(cfg.Security.MaxLoginAttempts).To(Equal(5))
			Expect(cfg.Security.LockoutDuration()).To(Equal(15 * time.Minute))
			Expect(cfg.Session.PermanentLifetime()).To(Equal(24 * time.Hour))
			Expect(cfg.Session.SameSite()).To(Equal(http.SameSiteLaxMode))
			Expect(cfg.Schedule.CredentialHours).To(Equal(8))
		})

		It("fails validation only for the missing secret key", func() {
			cfg := internal.DefaultConfig()
			err := cfg.Validate()
			Expect(err).To(MatchError(ContainSubstring("secret key")))

			cfg.Security.SecretKey = "0123456789abcdef0123456789abcdef"
			Expect(cfg.Validate()).To(Succeed())
		})
	})

	Describe("DSN", func() {
		load := func(vars map[string]string) *internal.Config {
			cfg, err := internal.LoadConfigFromMap(vars)
			Expect(err).NotTo(HaveOccurred())
			return cfg
		}

		query := func(dsn string) url.Values {
			u, err := url.Parse(dsn)
			Expect(err).NotTo(HaveOccurred())
			return u.Query()
		}

		It("builds a local DSN from the individual values without forcing TLS", func() {
			cfg := load(map[string]string{"DB_PASSWORD": "s3cret", "DB_CONNECT_TIMEOUT": "3s"})

			u, err := url.Parse(cfg.Database.DSN())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Host).To(Equal("localhost:5432"))
			Expect(u.Path).To(Equal("/control_acceso"))
			Expect(u.User.Username()).To(Equal("postgres"))
			pw, _ := u.User.Password()
			Expect(pw).To(Equal("s3cret"))
			Expect(u.Query().Has("sslmode")).To(BeFalse())
			Expect(u.Query().Get("connect_timeout")).To(Equal("3"))
		})

		It("requires TLS for remote hosts", func() {
			cfg := load(map[string]string{"DB_HOST": "db.example.com"})
			Expect(query(cfg.Database.DSN()).Get("sslmode")).To(Equal("require"))
		})

		It("prefers DATABASE_URL over DATABASE_URI and keeps an explicit sslmode", func() {
			cfg := load(map[string]string{
				"DATABASE_URL": "postgres://u:p@db.example.com:6543/app?sslmode=disable",
				"DATABASE_URI": "postgres://other@elsewhere/app",
				"DB_HOST":      "ignored",
			})

			u, err := url.Parse(cfg.Database.DSN())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Host).To(Equal("db.example.com:6543"))
			Expect(u.Query().Get("sslmode")).To(Equal("disable"))
		})

		It("falls back to DATABASE_URI", func() {
			cfg := load(map[string]string{"DATABASE_URI": "postgres://u@remote.example.com/app"})
			Expect(cfg.Database.DSN()).To(HavePrefix("postgres://u@remote.example.com/app"))
			Expect(query(cfg.Database.DSN()).Get("sslmode")).To(Equal("require"))
		})
	})

	Describe("IsRemoteHost", func() {
		DescribeTable("classifies hosts",
			func(host string, remote bool) {
				Expect(internal.IsRemoteHost(host)).To(Equal(remote))
			},
			Entry("localhost", "localhost", false),
			Entry("loopback v4", "127.0.0.1", false),
			Entry("loopback v6", "::1", false),
			Entry("unix socket", "/var/run/postgresql", false),
			Entry("hostname", "db.internal", true),
		)
	})

	Describe("validation", func() {
		var cfg *internal.Config

		BeforeEach(func() {
			cfg = internal.DefaultConfig()
			cfg.Security.SecretKey = "0123456789abcdef0123456789abcdef"
		})

		It("rejects an inverted schedule", func() {
			cfg.Schedule.Start, cfg.Schedule.End = "18:00", "08:00"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("schedule config")))
		})

		It("rejects an unknown password scheme", func() {
			cfg.Security.PasswordScheme = "md5"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("password scheme")))
		})

		It("trusts no proxy by default", func() {
			nets, err := cfg.Server.TrustedProxyNets()
			Expect(err).NotTo(HaveOccurred())
			Expect(nets).To(BeEmpty())
			Expect(cfg.Server.MaxBodyBytes).To(Equal(int64(1 << 20)))
		})

		It("parses trusted proxies given as IPs or CIDRs", func() {
			cfg.Server.TrustedProxies = "10.0.0.0/8, 192.0.2.1 ,::1"
			nets, err := cfg.Server.TrustedProxyNets()
			Expect(err).NotTo(HaveOccurred())
			Expect(nets).To(HaveLen(3))
			Expect(nets[0].Contains(net.ParseIP("10.20.30.40"))).To(BeTrue())
			Expect(nets[1].Contains(net.ParseIP("192.0.2.1"))).To(BeTrue())
			Expect(nets[1].Contains(net.ParseIP("192.0.2.2"))).To(BeFalse())
			Expect(nets[2].Contains(net.ParseIP("::1"))).To(BeTrue())
		})

		It("rejects a malformed trusted proxy", func() {
			cfg.Server.TrustedProxies = "10.0.0.0/33"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("trusted proxy")))
		})

		It("rejects an unknown SameSite mode", func() {
			cfg.Session.CookieSameSite = "sometimes"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("cookie_same_site")))
		})
	})
})
