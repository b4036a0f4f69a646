package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/session"
	"github.com/frahmantamala/access-control/internal/transport"
)

type PermissionAuthorizer interface {
	HasPermission(ctx context.Context, userID int64, p Permission) bool
}

// RBACAuthorization gates routes on a permission resolved fresh for the
// session user on every request.
type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer PermissionAuthorizer
}

func NewRBACAuthorization(authorizer PermissionAuthorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission Permission) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := internal.UserIDFromContext(r.Context())
		if userID == 0 {
			userID = session.FromContext(r.Context()).UserID()
		}
		if userID == 0 {
			ra.Logger.WarnContext(r.Context(), "authorization check failed: no session user")
			ra.WriteAppError(w, r, internal.ErrNotAuthenticated)
			return
		}

		if !ra.authorizer.HasPermission(r.Context(), userID, permission) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", userID,
				"required_permission", permission)
			ra.WriteAppError(w, r, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}
