package internal

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string              `mapstructure:"env" env:"APP_ENV" envDefault:"development"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Session       SessionConfig       `mapstructure:"session"`
	Dashboard     DashboardConfig     `mapstructure:"dashboard"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"HTTP_PORT" envDefault:"8080"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	// TrustedProxies is a comma separated list of IPs or CIDRs whose
	// X-Forwarded-For / X-Real-IP headers are honoured. Empty trusts none.
	TrustedProxies    string        `mapstructure:"trusted_proxies" env:"TRUSTED_PROXIES"`
}

// DatabaseConfig resolves the PostgreSQL connection either from a single URL
// (DATABASE_URL, then DATABASE_URI) or from the individual DB_* values.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" env:"DATABASE_URL"`
	URI             string        `mapstructure:"uri" env:"DATABASE_URI"`
	Host            string        `mapstructure:"host" env:"DB_HOST" envDefault:"localhost"`
	Port            int           `mapstructure:"port" env:"DB_PORT" envDefault:"5432"`
	User            string        `mapstructure:"user" env:"DB_USER" envDefault:"postgres"`
	Password        string        `mapstructure:"password" env:"DB_PASSWORD"`
	Name            string        `mapstructure:"name" env:"DB_NAME" envDefault:"control_acceso"`
	SSLMode         string        `mapstructure:"sslmode" env:"DB_SSLMODE"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

type SecurityConfig struct {
	SecretKey          string  `mapstructure:"secret_key" env:"SECRET_KEY"`
	PasswordScheme     string  `mapstructure:"password_scheme" env:"PASSWORD_SCHEME" envDefault:"bcrypt"`
	BCryptCost         int     `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`
	MaxLoginAttempts   int     `mapstructure:"max_login_attempts" env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutMinutes     int     `mapstructure:"lockout_minutes" env:"LOCKOUT_TIME_MIN" envDefault:"15"`
	LoginRatePerSecond float64 `mapstructure:"login_rate_per_second" env:"LOGIN_RATE_PER_SECOND" envDefault:"5"`
	LoginRateBurst     int     `mapstructure:"login_rate_burst" env:"LOGIN_RATE_BURST" envDefault:"10"`
}

type SessionConfig struct {
	CookieName             string        `mapstructure:"cookie_name" env:"SESSION_COOKIE_NAME" envDefault:"session"`
	// Lifetime is the absolute lifetime of a non-permanent session, counted
	// from login. Requests do not extend it.
	Lifetime               time.Duration `mapstructure:"lifetime" env:"SESSION_BROWSER_LIFETIME" envDefault:"2h"`
	PermanentLifetimeHours int           `mapstructure:"permanent_lifetime_hours" env:"SESSION_LIFETIME_HOURS" envDefault:"24"`
	CookieSecure           bool          `mapstructure:"cookie_secure" env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly         bool          `mapstructure:"cookie_http_only" env:"SESSION_COOKIE_HTTPONLY" envDefault:"true"`
	CookieSameSite         string        `mapstructure:"cookie_same_site" env:"SESSION_COOKIE_SAMESITE" envDefault:"Lax"`
	CleanupInterval        time.Duration `mapstructure:"cleanup_interval" env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
}

type DashboardConfig struct {
	PresenceWindow    time.Duration `mapstructure:"presence_window" env:"DASHBOARD_PRESENCE_WINDOW" envDefault:"24h"`
	RecentAccessLimit uint64        `mapstructure:"recent_access_limit" env:"DASHBOARD_RECENT_ACCESS_LIMIT" envDefault:"10"`
	RecentAlertLimit  uint64        `mapstructure:"recent_alert_limit" env:"DASHBOARD_RECENT_ALERT_LIMIT" envDefault:"5"`
}

type ScheduleConfig struct {
	Start           string `mapstructure:"start" env:"HORA_INICIO" envDefault:"08:00"`
	End             string `mapstructure:"end" env:"HORA_FIN" envDefault:"18:00"`
	CredentialHours int    `mapstructure:"credential_hours" env:"DURACION_CREDENCIAL_HORAS" envDefault:"8"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `mapstructure:"path" env:"METRICS_PATH" envDefault:"/metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LOG_LEVEL" envDefault:"info"`
	Format string `mapstructure:"format" env:"LOG_FORMAT" envDefault:"text"`
}

// ----------------- LOADING -----------------

// DefaultConfig returns a config populated only with the declared defaults.
func DefaultConfig() *Config {
	cfg, err := LoadConfigFromMap(map[string]string{})
	if err != nil {
		// defaults are static; a failure here is a programming error
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return cfg
}

// LoadConfigFromEnv loads a .env file when present and then parses the
// process environment.
func LoadConfigFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// LoadConfigFromMap parses the config from the given variables instead of
// the process environment.
func LoadConfigFromMap(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Session.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("session config: %v", err))
	}

	if err := c.Schedule.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("schedule config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max_body_bytes must be positive")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyNets parses TrustedProxies. A bare IP is treated as a single
// host network.
func (c *ServerConfig) TrustedProxyNets() ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, n, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		bits := 128
		if v4 := ip.To4(); v4 != nil {
			ip, bits = v4, 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	if c.connectionURL() != "" {
		if _, err := url.Parse(c.connectionURL()); err != nil {
			return fmt.Errorf("invalid database url: %w", err)
		}
		return nil
	}
	if c.Host == "" || c.Name == "" {
		return errors.New("host and name are required when no database url is set")
	}
	return nil
}

func (c *DatabaseConfig) connectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return c.URI
}

// DSN returns the connection string for the pgx driver. A remote host always
// gets sslmode=require unless a mode is already present.
func (c *DatabaseConfig) DSN() string {
	var u *url.URL

	if raw := c.connectionURL(); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil {
			return raw
		}
		u = parsed
	} else {
		u = &url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.Name,
		}
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		switch {
		case c.SSLMode != "":
			q.Set("sslmode", c.SSLMode)
		case IsRemoteHost(u.Hostname()):
			q.Set("sslmode", "require")
		}
	}
	if c.ConnectTimeout > 0 && q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// IsRemoteHost reports whether host is reached over the network rather than
// the loopback interface or a unix socket.
func IsRemoteHost(host string) bool {
	switch strings.ToLower(host) {
	case "", "localhost", "127.0.0.1", "::1":
		return false
	}
	return !strings.HasPrefix(host, "/")
}

func (c *SecurityConfig) Validate() error {
	switch c.PasswordScheme {
	case "bcrypt", "legacy-sha256":
	default:
		return fmt.Errorf("unknown password scheme %q", c.PasswordScheme)
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	if c.MaxLoginAttempts < 1 {
		return errors.New("max_login_attempts must be at least 1")
	}
	if c.LockoutMinutes < 1 {
		return errors.New("lockout_minutes must be at least 1")
	}
	if len(c.SecretKey) < 32 {
		return errors.New("secret key must be at least 32 characters")
	}
	return nil
}

func (c *SecurityConfig) LockoutDuration() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

func (c *SessionConfig) Validate() error {
	if c.CookieName == "" {
		return errors.New("cookie_name is required")
	}
	if c.Lifetime <= 0 {
		return errors.New("lifetime must be positive")
	}
	if c.PermanentLifetimeHours < 1 {
		return errors.New("permanent_lifetime_hours must be at least 1")
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("invalid cookie_same_site %q", c.CookieSameSite)
	}
	return nil
}

func (c *SessionConfig) PermanentLifetime() time.Duration {
	return time.Duration(c.PermanentLifetimeHours) * time.Hour
}

func (c *SessionConfig) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c *ScheduleConfig) Validate() error {
	start, err := time.Parse("15:04", c.Start)
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", c.Start, err)
	}
	end, err := time.Parse("15:04", c.End)
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", c.End, err)
	}
	if !end.After(start) {
		return errors.New("end must be after start")
	}
	if c.CredentialHours < 1 {
		return errors.New("credential_hours must be at least 1")
	}
	return nil
}
