package user

import (
	"time"

	"github.com/frahmantamala/access-control/internal/auth"
	userDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/user"
)

// Record is an active usuarios row merged with its role.
type Record struct {
	ID              int64     `db:"id"`
	Name            string    `db:"nombre"`
	Email           string    `db:"correo"`
	RoleID          int64     `db:"rol_id"`
	Status          string    `db:"estado"`
	CreatedAt       time.Time `db:"fecha_creacion"`
	RoleName        string    `db:"rol_nombre"`
	RoleDescription string    `db:"rol_descripcion"`
}

// Profile is the current user as seen by the rest of the request.
type Profile struct {
	ID              int64
	Name            string
	Email           string
	RoleID          int64
	RoleName        string
	RoleDescription string
	Status          string
	CreatedAt       time.Time
	Permissions     auth.PermissionSet
}

func (p *Profile) HasPermission(perm auth.Permission) bool {
	if p == nil {
		return false
	}
	return p.Permissions.Has(perm)
}

func (p *Profile) IsActive() bool {
	return p != nil && p.Status == userDatamodel.StatusActive
}

func newProfile(r *Record, perms auth.PermissionSet) *Profile {
	return &Profile{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		RoleID:          r.RoleID,
		RoleName:        r.RoleName,
		RoleDescription: r.RoleDescription,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		Permissions:     perms,
	}
}
