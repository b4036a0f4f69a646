package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/frahmantamala/access-control/pkg/logger"
)

type ServiceAPI interface {
	Build(ctx context.Context, viewer Viewer) *Stats
	RecentAccesses(ctx context.Context, limit uint64) ([]AccessRecord, error)
	RecentAlerts(ctx context.Context, limit uint64) ([]Alert, error)
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

// GetDashboard handles GET /dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	profile, ok := user.ProfileFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrNotAuthenticated)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.Build(r.Context(), profile))
}

// ListAccesses handles GET /accesses
func (h *Handler) ListAccesses(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	records, err := h.Service.RecentAccesses(r.Context(), limit)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to list accesses", "error", err)
		h.WriteAppError(w, r, internal.ErrServer)
		return
	}
	if records == nil {
		records = []AccessRecord{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"accesos": records})
}

// ListAlerts handles GET /alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	alerts, err := h.Service.RecentAlerts(r.Context(), limit)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to list alerts", "error", err)
		h.WriteAppError(w, r, internal.ErrServer)
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"alertas": alerts})
}

func parseLimit(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, internal.NewValidationFieldError("limit", "limit must be a positive integer", internal.ErrCodeValidationFailed)
	}
	return n, nil
}
