package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/session"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/pkg/logger"
)

type ServiceAPI interface {
	Current(ctx context.Context, sess *session.Session) *Profile
}

type ctxKey struct{}

func ContextWithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func ProfileFromContext(ctx context.Context) (*Profile, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Profile)
	return p, ok && p != nil
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// RequireLogin resolves the current user once per request and rejects the
// request with 401 when there is none.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := h.Service.Current(r.Context(), session.FromContext(r.Context()))
		if profile == nil {
			h.WriteAppError(w, r, internal.ErrNotAuthenticated)
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), profile.ID)
		ctx = logger.With(ctx, "user_id", profile.ID)
		ctx = ContextWithProfile(ctx, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		profile = h.Service.Current(r.Context(), session.FromContext(r.Context()))
	}
	if profile == nil {
		h.WriteAppError(w, r, internal.ErrNotAuthenticated)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile.ToV1())
}
