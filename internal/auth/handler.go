package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/session"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/pkg/logger"
)

type ServiceAPI interface {
	CheckLockout(ctx context.Context, clientIP string) error
	Login(ctx context.Context, sess *session.Session, dto LoginDTO, clientIP string, persist SessionPersister) (*LoginResult, error)
	Logout(ctx context.Context, sess *session.Session)
}

// SessionCommitter persists a session changed by the service.
type SessionCommitter interface {
	Commit(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Sessions SessionCommitter
}

func NewHandler(svc ServiceAPI, sessions SessionCommitter) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Sessions:    sessions,
	}
}

// RejectLocked answers 429 for a locked out caller before its body is
// decoded or validated.
func (h *Handler) RejectLocked(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Service.CheckLockout(r.Context(), transport.ClientIP(r)); err != nil {
			h.WriteAppError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteAppError(w, r, internal.ErrPayloadTooLarge)
			return
		}
		h.WriteAppError(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	sess := session.FromContext(r.Context())
	result, err := h.Service.Login(r.Context(), sess, dto, transport.ClientIP(r), func(s *session.Session) error {
		return h.Sessions.Commit(r.Context(), w, s)
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponseV1{
		Message: "Bienvenido " + result.Name,
		User:    result.ToV1(),
	})
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.Service.Logout(r.Context(), sess)

	if err := h.Sessions.Commit(r.Context(), w, sess); err != nil {
		h.Logger.WarnContext(r.Context(), "failed to delete session record", "error", err)
	}

	h.WriteJSON(w, http.StatusOK, LogoutResponseV1{Message: "Sesión cerrada"})
}
