package user

import "time"

const (
	StatusActive   = "activo"
	StatusInactive = "inactivo"
)

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:nombre;not null"`
	Email        string    `gorm:"column:correo;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:contrasena;not null"`
	RoleID       int64     `gorm:"column:rol_id;not null"`
	Status       string    `gorm:"column:estado;not null;default:activo"`
	CreatedAt    time.Time `gorm:"column:fecha_creacion;autoCreateTime"`
}

func (User) TableName() string { return "usuarios" }

type Role struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:nombre;uniqueIndex;not null"`
	Description string `gorm:"column:descripcion"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:nombre;not null"`
	Module      string `gorm:"column:modulo;not null"`
	Description string `gorm:"column:descripcion"`
}

func (Permission) TableName() string { return "permisos" }

// Key is the external "<module>.<name>" identifier.
func (p Permission) Key() string { return p.Module + "." + p.Name }

type RolePermission struct {
	RoleID       int64 `gorm:"column:rol_id;primaryKey"`
	PermissionID int64 `gorm:"column:permiso_id;primaryKey"`
}

func (RolePermission) TableName() string { return "rol_permisos" }
