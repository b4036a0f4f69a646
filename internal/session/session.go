package session

import (
	"context"
	"time"
)

// Data is the user state kept for an authenticated session. The json keys are
// the persisted session contract.
type Data struct {
	UserID   int64  `json:"usuario_id,omitempty"`
	UserName string `json:"usuario_nombre,omitempty"`
	RoleID   int64  `json:"usuario_rol_id,omitempty"`
	RoleName string `json:"usuario_rol,omitempty"`
}

// Session is the per-request view of a server-side session. Services mutate
// it and the Manager persists the result.
type Session struct {
	ID        string
	Data      Data
	Permanent bool
	ExpiresAt time.Time

	renew    bool
	cleared  bool
	modified bool
}

func New() *Session {
	return &Session{}
}

func (s *Session) UserID() int64 {
	if s == nil {
		return 0
	}
	return s.Data.UserID
}

func (s *Session) Authenticated() bool {
	return s.UserID() != 0
}

// SetUser stores the authenticated user and asks for a fresh session id on
// commit.
func (s *Session) SetUser(d Data, permanent bool) {
	s.Data = d
	s.Permanent = permanent
	s.renew = true
	s.cleared = false
	s.modified = true
}

// Clear drops all session keys.
func (s *Session) Clear() {
	s.Data = Data{}
	s.Permanent = false
	s.cleared = true
	s.modified = true
}

func (s *Session) Modified() bool { return s.modified }

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request session, or an empty one when the
// middleware did not run.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return New()
}
