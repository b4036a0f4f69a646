package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/session"
)

type Repository interface {
	// GetActiveByID returns nil without error when no active user has id.
	GetActiveByID(ctx context.Context, id int64) (*Record, error)
}

type PermissionResolver interface {
	Resolve(ctx context.Context, userID int64) auth.PermissionSet
}

type Service struct {
	repo     Repository
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver PermissionResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// Current returns the profile of the session user, or nil when there is none,
// the user is gone or inactive, or the datastore cannot be read.
func (s *Service) Current(ctx context.Context, sess *session.Session) *Profile {
	userID := sess.UserID()
	if userID == 0 {
		return nil
	}

	rec, err := s.repo.GetActiveByID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load current user", "user_id", userID, "error", err)
		return nil
	}
	if rec == nil {
		s.logger.DebugContext(ctx, "session references a missing or inactive user", "user_id", userID)
		return nil
	}

	return newProfile(rec, s.resolver.Resolve(ctx, userID))
}
