package user

import "time"

type ProfileV1 struct {
	ID              int64     `json:"id"`
	Name            string    `json:"nombre"`
	Email           string    `json:"correo"`
	RoleID          int64     `json:"rol_id"`
	RoleName        string    `json:"rol_nombre"`
	RoleDescription string    `json:"rol_descripcion,omitempty"`
	Status          string    `json:"estado"`
	CreatedAt       time.Time `json:"fecha_creacion"`
	Permissions     []string  `json:"permisos"`
}

func (p *Profile) ToV1() ProfileV1 {
	return ProfileV1{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		RoleID:          p.RoleID,
		RoleName:        p.RoleName,
		RoleDescription: p.RoleDescription,
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
		Permissions:     p.Permissions.Strings(),
	}
}
