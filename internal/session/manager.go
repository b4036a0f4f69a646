package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/access-control/internal"
	datamodel "github.com/frahmantamala/access-control/internal/core/datamodel/session"
)

type Store interface {
	// Find returns nil without error when the record is missing or expired.
	Find(ctx context.Context, id string, now time.Time) (*datamodel.Session, error)
	Save(ctx context.Context, rec *datamodel.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Manager struct {
	store  Store
	codec  *Codec
	cfg    internal.SessionConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store Store, codec *Codec, cfg internal.SessionConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Load reads the session referenced by the request cookie. Any problem with
// the cookie or the record yields an empty session.
func (m *Manager) Load(ctx context.Context, r *http.Request) *Session {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return New()
	}

	id, err := m.codec.Decode(cookie.Value)
	if err != nil {
		m.logger.DebugContext(ctx, "discarding session cookie", "error", err)
		return New()
	}

	rec, err := m.store.Find(ctx, id, m.now())
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to load session", "error", err)
		return New()
	}
	if rec == nil {
		return New()
	}

	var data Data
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		m.logger.WarnContext(ctx, "corrupt session data", "session_id", rec.ID, "error", err)
		return New()
	}

	return &Session{
		ID:        rec.ID,
		Data:      data,
		Permanent: rec.Permanent,
		ExpiresAt: rec.ExpiresAt,
	}
}

// Commit persists a modified session and writes the matching cookie. The
// expiry is fixed here, so only a login moves it; loading never does.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.modified {
		return nil
	}

	if s.cleared {
		return m.destroy(ctx, w, s)
	}

	if s.renew && s.ID != "" {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			m.logger.WarnContext(ctx, "failed to delete previous session", "session_id", s.ID, "error", err)
		}
		s.ID = ""
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	now := m.now()
	lifetime := m.cfg.Lifetime
	if s.Permanent {
		lifetime = m.cfg.PermanentLifetime()
	}
	s.ExpiresAt = now.Add(lifetime)

	payload, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	rec := &datamodel.Session{
		ID:        s.ID,
		Data:      payload,
		Permanent: s.Permanent,
		ExpiresAt: s.ExpiresAt,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	token, err := m.codec.Encode(s.ID, s.ExpiresAt)
	if err != nil {
		return err
	}

	cookie := m.baseCookie(token)
	if s.Permanent {
		cookie.Expires = s.ExpiresAt
		cookie.MaxAge = int(lifetime.Seconds())
	}
	http.SetCookie(w, cookie)

	s.renew = false
	s.modified = false
	return nil
}

func (m *Manager) destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	var err error
	if s.ID != "" {
		if derr := m.store.Delete(ctx, s.ID); derr != nil {
			err = fmt.Errorf("delete session: %w", derr)
		}
	}

	cookie := m.baseCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)

	s.ID = ""
	s.ExpiresAt = time.Time{}
	s.cleared = false
	s.modified = false
	return err
}

func (m *Manager) baseCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: m.cfg.CookieHTTPOnly,
		Secure:   m.cfg.CookieSecure,
		SameSite: m.cfg.SameSite(),
	}
}

// Middleware loads the session for every request and stores it in the
// request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r.Context(), r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

// PurgeExpired removes session records past their expiry.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}
