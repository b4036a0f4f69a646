package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/auth"
)

type Service struct {
	repo     Repository
	cfg      internal.DashboardConfig
	schedule internal.ScheduleConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, cfg internal.DashboardConfig, schedule internal.ScheduleConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RecentAccessLimit == 0 {
		cfg.RecentAccessLimit = 10
	}
	if cfg.RecentAlertLimit == 0 {
		cfg.RecentAlertLimit = 5
	}
	if cfg.PresenceWindow <= 0 {
		cfg.PresenceWindow = 24 * time.Hour
	}
	return &Service{
		repo:     repo,
		cfg:      cfg,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build computes the statistics visible to viewer. Each query failure is
// logged and only blanks its own section.
func (s *Service) Build(ctx context.Context, viewer Viewer) *Stats {
	now := s.now()
	dayStart := startOfDay(now)

	stats := &Stats{
		Schedule: Schedule{
			Start:           s.schedule.Start,
			End:             s.schedule.End,
			CredentialHours: s.schedule.CredentialHours,
		},
	}

	fail := func(section string, err error) {
		stats.Incomplete = true
		s.logger.ErrorContext(ctx, "dashboard query failed", "section", section, "error", err)
	}

	if n, err := s.repo.ActiveVisitors(ctx); err != nil {
		fail("visitantes_activos", err)
	} else {
		stats.ActiveVisitors = n
	}

	if n, err := s.repo.AccessEventsSince(ctx, dayStart); err != nil {
		fail("accesos_hoy", err)
	} else {
		stats.TodayAccesses = n
	}

	if n, err := s.repo.VisitorsInside(ctx, now.Add(-s.cfg.PresenceWindow)); err != nil {
		fail("visitantes_dentro", err)
	} else {
		stats.VisitorsInside = n
	}

	if viewer.HasPermission(auth.PermViewAlerts) {
		stats.Alerts = s.alerts(ctx, dayStart, fail)
	}

	if viewer.HasPermission(auth.PermViewUsers) {
		if n, err := s.repo.ActiveUsers(ctx); err != nil {
			fail("usuarios_activos", err)
		} else {
			stats.ActiveUsers = &n
		}
	}

	if viewer.HasPermission(auth.PermViewAccessLog) {
		if recent, err := s.repo.RecentAccesses(ctx, s.cfg.RecentAccessLimit); err != nil {
			fail("accesos_recientes", err)
		} else {
			stats.RecentAccesses = recent
		}
	}

	return stats
}

func (s *Service) alerts(ctx context.Context, dayStart time.Time, fail func(string, error)) *AlertSection {
	today, err := s.repo.AlertsSince(ctx, dayStart)
	if err != nil {
		fail("alertas_hoy", err)
		return nil
	}
	recent, err := s.repo.RecentAlerts(ctx, s.cfg.RecentAlertLimit)
	if err != nil {
		fail("alertas_recientes", err)
		return nil
	}
	return &AlertSection{Today: today, Recent: recent}
}

// RecentAccesses returns up to limit entry/exit events, capped at 100.
func (s *Service) RecentAccesses(ctx context.Context, limit uint64) ([]AccessRecord, error) {
	return s.repo.RecentAccesses(ctx, clampLimit(limit, s.cfg.RecentAccessLimit))
}

// RecentAlerts returns up to limit high and medium alerts, capped at 100.
func (s *Service) RecentAlerts(ctx context.Context, limit uint64) ([]Alert, error) {
	return s.repo.RecentAlerts(ctx, clampLimit(limit, s.cfg.RecentAlertLimit))
}

func clampLimit(limit, fallback uint64) uint64 {
	switch {
	case limit == 0:
		return fallback
	case limit > 100:
		return 100
	}
	return limit
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
