package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/access-control/internal/auth"
	userDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/user"
)

type Repository struct {
	db   *sqlx.DB
	exec sqlx.ExtContext
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, exec: db}
}

const findActiveByEmailQuery = `
SELECT u.id, u.nombre, u.correo, u.contrasena, u.rol_id, r.nombre AS rol_nombre
FROM usuarios u
JOIN roles r ON u.rol_id = r.id
WHERE u.correo = $1 AND u.estado = $2`

func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	var cred auth.Credential
	err := sqlx.GetContext(ctx, r.exec, &cred, findActiveByEmailQuery, email, userDatamodel.StatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select credential: %w", err)
	}
	return &cred, nil
}

const permissionsForUserQuery = `
SELECT p.modulo || '.' || p.nombre
FROM usuarios u
JOIN roles r ON u.rol_id = r.id
JOIN rol_permisos rp ON r.id = rp.rol_id
JOIN permisos p ON rp.permiso_id = p.id
WHERE u.id = $1 AND u.estado = $2`

func (r *Repository) PermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	perms := []string{}
	if err := sqlx.SelectContext(ctx, r.exec, &perms, permissionsForUserQuery, userID, userDatamodel.StatusActive); err != nil {
		return nil, fmt.Errorf("select permissions: %w", err)
	}
	return perms, nil
}

const recordAccessQuery = `
INSERT INTO accesos (usuario_id, tipo, autorizado, fecha_hora)
VALUES ($1, $2, $3, NOW())`

func (r *Repository) RecordAccess(ctx context.Context, userID int64, kind string, authorized bool) error {
	if _, err := r.exec.ExecContext(ctx, recordAccessQuery, userID, kind, authorized); err != nil {
		return fmt.Errorf("insert access entry: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	res, err := r.exec.ExecContext(ctx, `UPDATE usuarios SET contrasena = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update password hash: user %d not found", userID)
	}
	return nil
}

func (r *Repository) WithinTx(ctx context.Context, fn func(auth.RepositoryAPI) error) (err error) {
	if _, inTx := r.exec.(*sqlx.Tx); inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Repository{db: r.db, exec: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
