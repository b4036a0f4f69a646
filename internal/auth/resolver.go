package auth

import (
	"context"
	"log/slog"
)

type PermissionRepository interface {
	// PermissionsForUser returns "<module>.<name>" strings granted to an
	// active user through their role. Unknown or inactive users yield none.
	PermissionsForUser(ctx context.Context, userID int64) ([]string, error)
}

// Resolver computes a user's permission set from the datastore on every call.
type Resolver struct {
	repo   PermissionRepository
	logger *slog.Logger
}

func NewResolver(repo PermissionRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve fails closed: a datastore error yields the empty set.
func (r *Resolver) Resolve(ctx context.Context, userID int64) PermissionSet {
	perms, err := r.repo.PermissionsForUser(ctx, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to resolve permissions", "user_id", userID, "error", err)
		return PermissionSet{}
	}
	return NewPermissionSet(perms...)
}

func (r *Resolver) HasPermission(ctx context.Context, userID int64, p Permission) bool {
	return r.Resolve(ctx, userID).Has(p)
}
