package auth

import (
	"strings"

	"github.com/frahmantamala/access-control/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
	Remember bool   `json:"recordar"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
}

func (d LoginDTO) Validate() error {
	if err := validation.ValidateCredentials(d.Email, d.Password); err != nil {
		return err
	}
	return nil
}

type UserV1 struct {
	ID       int64  `json:"id"`
	Name     string `json:"nombre"`
	RoleID   int64  `json:"rol_id"`
	RoleName string `json:"rol"`
}

type LoginResponseV1 struct {
	Message string `json:"mensaje"`
	User    UserV1 `json:"usuario"`
}

type LogoutResponseV1 struct {
	Message string `json:"mensaje"`
}
