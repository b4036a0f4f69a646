package dashboard

import (
	"context"
	"time"

	"github.com/frahmantamala/access-control/internal/auth"
)

type Alert struct {
	ID          int64     `db:"id" json:"id"`
	Level       string    `db:"nivel" json:"nivel"`
	Description string    `db:"descripcion" json:"descripcion"`
	Date        time.Time `db:"fecha" json:"fecha"`
}

type AccessRecord struct {
	ID          int64     `db:"id" json:"id"`
	Type        string    `db:"tipo" json:"tipo"`
	Timestamp   time.Time `db:"fecha_hora" json:"fecha_hora"`
	Authorized  bool      `db:"autorizado" json:"autorizado"`
	VisitorName string    `db:"visitante_nombre" json:"visitante_nombre"`
	UserName    string    `db:"usuario_nombre" json:"usuario_nombre"`
}

type Repository interface {
	ActiveVisitors(ctx context.Context) (int64, error)
	AccessEventsSince(ctx context.Context, since time.Time) (int64, error)
	// VisitorsInside counts visitors whose latest entry after since has no
	// later exit.
	VisitorsInside(ctx context.Context, since time.Time) (int64, error)
	AlertsSince(ctx context.Context, since time.Time) (int64, error)
	RecentAlerts(ctx context.Context, limit uint64) ([]Alert, error)
	ActiveUsers(ctx context.Context) (int64, error)
	RecentAccesses(ctx context.Context, limit uint64) ([]AccessRecord, error)
}

// Viewer is the caller the statistics are computed for.
type Viewer interface {
	HasPermission(p auth.Permission) bool
}

type AlertSection struct {
	Today  int64   `json:"alertas_hoy"`
	Recent []Alert `json:"alertas_recientes"`
}

type Schedule struct {
	Start           string `json:"hora_inicio"`
	End             string `json:"hora_fin"`
	CredentialHours int    `json:"duracion_credencial_horas"`
}

// Stats is the dashboard payload. Permission-gated sections are nil when the
// viewer lacks the permission or the section could not be loaded.
type Stats struct {
	ActiveVisitors int64          `json:"visitantes_activos"`
	TodayAccesses  int64          `json:"accesos_hoy"`
	VisitorsInside int64          `json:"visitantes_dentro"`
	Alerts         *AlertSection  `json:"alertas,omitempty"`
	ActiveUsers    *int64         `json:"usuarios_activos,omitempty"`
	RecentAccesses []AccessRecord `json:"accesos_recientes,omitempty"`
	Schedule       Schedule       `json:"horario"`
	Incomplete     bool           `json:"incompleto,omitempty"`
}
