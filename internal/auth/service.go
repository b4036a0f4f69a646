package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-control/internal"
	accessDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/frahmantamala/access-control/internal/session"
)

var errCredentialMismatch = errors.New("credential mismatch")

type Service struct {
	repo   RepositoryAPI
	hasher *PasswordHasher
	guard  LoginGuard
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hasher *PasswordHasher, guard LoginGuard, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		guard:  guard,
		events: publisher,
		logger: logger,
	}
}

// SessionPersister stores a session the login flow has just authenticated.
type SessionPersister func(sess *session.Session) error

// CheckLockout rejects an address the guard has locked out.
func (s *Service) CheckLockout(ctx context.Context, clientIP string) error {
	if !s.guard.IsLocked(clientIP) {
		return nil
	}
	s.logger.WarnContext(ctx, "login blocked by lockout", "client_ip", clientIP)
	s.publish(ctx, events.NewLoginBlockedEvent(clientIP))
	return internal.ErrTooManyAttempts
}

// Login authenticates the caller and, on success, writes the user into sess.
// The lookup, the login audit entry and persist (when given) all happen in one
// transaction, so a session that cannot be stored leaves no login entry.
func (s *Service) Login(ctx context.Context, sess *session.Session, dto LoginDTO, clientIP string, persist SessionPersister) (*LoginResult, error) {
	if err := s.CheckLockout(ctx, clientIP); err != nil {
		return &LoginResult{State: StateRejected}, err
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return &LoginResult{State: StateRejected}, err
	}

	result := &LoginResult{State: StateChecking}
	var (
		cred                *Credential
		signedIn, persisted bool
	)
	err := s.repo.WithinTx(ctx, func(tx RepositoryAPI) error {
		c, err := tx.FindActiveByEmail(ctx, dto.Email)
		if err != nil {
			return fmt.Errorf("find active user: %w", err)
		}
		if c == nil || !s.hasher.Verify(dto.Password, c.PasswordHash) {
			return errCredentialMismatch
		}
		if err := tx.RecordAccess(ctx, c.UserID, accessDatamodel.TypeLogin, true); err != nil {
			return fmt.Errorf("record login: %w", err)
		}

		sess.SetUser(session.Data{
			UserID:   c.UserID,
			UserName: c.Name,
			RoleID:   c.RoleID,
			RoleName: c.RoleName,
		}, dto.Remember)
		signedIn = true
		if persist != nil {
			if err := persist(sess); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			persisted = true
		}

		cred = c
		return nil
	})

	switch {
	case errors.Is(err, errCredentialMismatch):
		locked := s.guard.RegisterFailure(clientIP)
		s.logger.InfoContext(ctx, "login rejected", "client_ip", clientIP, "locked", locked)
		s.publish(ctx, events.NewLoginFailedEvent(clientIP, events.ReasonInvalidCredentials, locked))
		result.State = StateRejected
		return result, internal.ErrInvalidCredentials
	case err != nil:
		s.logger.ErrorContext(ctx, "login failed", "client_ip", clientIP, "error", err)
		if signedIn {
			s.discardSession(ctx, sess, persist, persisted)
		}
		s.publish(ctx, events.NewLoginFailedEvent(clientIP, events.ReasonServerError, false))
		result.State = StateRejected
		return result, internal.ErrServer
	}

	s.guard.Reset(clientIP)
	s.upgradeHash(ctx, cred, dto.Password)

	s.logger.InfoContext(ctx, "login succeeded", "user_id", cred.UserID, "role", cred.RoleName)
	s.publish(ctx, events.NewLoginSucceededEvent(cred.UserID, cred.RoleName, clientIP))

	result.State = StateAuthenticated
	result.UserID = cred.UserID
	result.Name = cred.Name
	result.RoleID = cred.RoleID
	result.RoleName = cred.RoleName
	return result, nil
}

// Logout records the logout when a user is present and always clears sess.
func (s *Service) Logout(ctx context.Context, sess *session.Session) {
	if userID := sess.UserID(); userID != 0 {
		if err := s.repo.RecordAccess(ctx, userID, accessDatamodel.TypeLogout, true); err != nil {
			s.logger.WarnContext(ctx, "failed to record logout", "user_id", userID, "error", err)
		}
		s.publish(ctx, events.NewLogoutEvent(userID))
	}
	sess.Clear()
}

// discardSession undoes a login whose transaction did not commit. A session
// already stored is deleted again.
func (s *Service) discardSession(ctx context.Context, sess *session.Session, persist SessionPersister, persisted bool) {
	sess.Clear()
	if !persisted {
		return
	}
	if err := persist(sess); err != nil {
		s.logger.WarnContext(ctx, "failed to discard session", "error", err)
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}

func (s *Service) upgradeHash(ctx context.Context, cred *Credential, password string) {
	if !s.hasher.NeedsRehash(cred.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rehash password", "user_id", cred.UserID, "error", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, cred.UserID, hash); err != nil {
		s.logger.WarnContext(ctx, "failed to store upgraded password hash", "user_id", cred.UserID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", ev.EventType(), "error", err)
	}
}
