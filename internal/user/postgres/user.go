package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	userDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/user"
	"github.com/frahmantamala/access-control/internal/user"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const getActiveByIDQuery = `
SELECT u.id, u.nombre, u.correo, u.rol_id, u.estado, u.fecha_creacion,
       r.nombre AS rol_nombre, COALESCE(r.descripcion, '') AS rol_descripcion
FROM usuarios u
JOIN roles r ON u.rol_id = r.id
WHERE u.id = $1 AND u.estado = $2`

func (r *Repository) GetActiveByID(ctx context.Context, id int64) (*user.Record, error) {
	var rec user.Record
	if err := r.db.GetContext(ctx, &rec, getActiveByIDQuery, id, userDatamodel.StatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &rec, nil
}
