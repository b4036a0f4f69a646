package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	accessDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/access"
	userDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/user"
	"github.com/frahmantamala/access-control/internal/dashboard"
)

const laterExit = "NOT EXISTS (SELECT 1 FROM accesos s WHERE s.visitante_id = e.visitante_id AND s.tipo = ? AND s.fecha_hora > e.fecha_hora)"

var (
	psql         = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	entryOrExit  = []string{accessDatamodel.TypeEntrada, accessDatamodel.TypeSalida}
	notableLevel = []string{accessDatamodel.LevelHigh, accessDatamodel.LevelMedium}
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) count(ctx context.Context, name string, stmt sq.SelectBuilder) (int64, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s query: %w", name, err)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

func (r *Repository) ActiveVisitors(ctx context.Context) (int64, error) {
	return r.count(ctx, "active visitors", psql.
		Select("COUNT(*)").
		From("visitantes").
		Where(sq.Eq{"estado": accessDatamodel.VisitorStatusActive}))
}

func (r *Repository) AccessEventsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "access events", psql.
		Select("COUNT(*)").
		From("accesos").
		Where(sq.Eq{"tipo": entryOrExit}).
		Where(sq.GtOrEq{"fecha_hora": since}))
}

func (r *Repository) VisitorsInside(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "visitors inside", psql.
		Select("COUNT(DISTINCT e.visitante_id)").
		From("accesos e").
		Where(sq.Eq{"e.tipo": accessDatamodel.TypeEntrada}).
		Where(sq.NotEq{"e.visitante_id": nil}).
		Where(sq.GtOrEq{"e.fecha_hora": since}).
		Where(laterExit, accessDatamodel.TypeSalida))
}

func (r *Repository) AlertsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "alerts", psql.
		Select("COUNT(*)").
		From("alertas").
		Where(sq.GtOrEq{"fecha": since}))
}

func (r *Repository) ActiveUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "active users", psql.
		Select("COUNT(*)").
		From("usuarios").
		Where(sq.Eq{"estado": userDatamodel.StatusActive}))
}

func (r *Repository) RecentAlerts(ctx context.Context, limit uint64) ([]dashboard.Alert, error) {
	query, args, err := psql.
		Select("id", "nivel", "COALESCE(descripcion, '') AS descripcion", "fecha").
		From("alertas").
		Where(sq.Eq{"nivel": notableLevel}).
		OrderBy("fecha DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent alerts query: %w", err)
	}

	alerts := []dashboard.Alert{}
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("select recent alerts: %w", err)
	}
	return alerts, nil
}

func (r *Repository) RecentAccesses(ctx context.Context, limit uint64) ([]dashboard.AccessRecord, error) {
	query, args, err := psql.
		Select(
			"a.id",
			"a.tipo",
			"a.fecha_hora",
			"a.autorizado",
			"COALESCE(v.nombre, '') AS visitante_nombre",
			"COALESCE(u.nombre, '') AS usuario_nombre",
		).
		From("accesos a").
		LeftJoin("visitantes v ON a.visitante_id = v.id").
		LeftJoin("usuarios u ON a.usuario_id = u.id").
		Where(sq.Eq{"a.tipo": entryOrExit}).
		OrderBy("a.fecha_hora DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent accesses query: %w", err)
	}

	records := []dashboard.AccessRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("select recent accesses: %w", err)
	}
	return records, nil
}
