package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/user"
)

const (
	RoleAdmin     = "administrador"
	RoleSecurity  = "seguridad"
	RoleReception = "recepcion"
)

type roleDef struct {
	name        string
	description string
	permissions []auth.Permission
}

var permissionDescriptions = map[auth.Permission]string{
	auth.PermViewAlerts:       "Ver alertas de seguridad",
	auth.PermManageAlerts:     "Crear y cerrar alertas",
	auth.PermViewUsers:        "Ver usuarios del sistema",
	auth.PermManageUsers:      "Crear, editar y desactivar usuarios",
	auth.PermViewAccessLog:    "Ver el registro de accesos",
	auth.PermRegisterAccess:   "Registrar entradas y salidas",
	auth.PermViewVisitors:     "Ver visitantes",
	auth.PermRegisterVisitors: "Registrar visitantes",
	auth.PermViewDashboard:    "Ver el panel principal",
}

var roles = []roleDef{
	{
		name:        RoleAdmin,
		description: "Acceso total al sistema",
		permissions: auth.KnownPermissions,
	},
	{
		name:        RoleSecurity,
		description: "Personal de seguridad",
		permissions: []auth.Permission{
			auth.PermViewAlerts,
			auth.PermManageAlerts,
			auth.PermViewAccessLog,
			auth.PermRegisterAccess,
			auth.PermViewVisitors,
			auth.PermViewDashboard,
		},
	},
	{
		name:        RoleReception,
		description: "Recepción de visitantes",
		permissions: []auth.Permission{
			auth.PermViewVisitors,
			auth.PermRegisterVisitors,
			auth.PermRegisterAccess,
			auth.PermViewDashboard,
		},
	},
}

const minAdminPasswordLength = 8

// Admin describes the initial administrator account.
type Admin struct {
	Name     string
	Email    string
	Password string
}

func (a Admin) validate() error {
	v := validation.NewValidator()
	v.Field("admin_email", strings.TrimSpace(a.Email)).
		Required().
		Email()
	v.Field("admin_password", a.Password).
		Required().
		MinLength(minAdminPasswordLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type Result struct {
	Roles        int
	Permissions  int
	AdminCreated bool
}

type Seeder struct {
	db     *gorm.DB
	hasher *auth.PasswordHasher
	logger *slog.Logger
}

func NewSeeder(db *gorm.DB, hasher *auth.PasswordHasher, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{db: db, hasher: hasher, logger: logger}
}

// Run creates the roles, permissions and role links, and the admin account
// when no user owns its email. It is safe to run repeatedly.
func (s *Seeder) Run(ctx context.Context, admin Admin) (*Result, error) {
	if err := admin.validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		permIDs := make(map[auth.Permission]int64, len(auth.KnownPermissions))
		for _, p := range auth.KnownPermissions {
			row := userDatamodel.Permission{Module: p.Module(), Name: p.Name()}
			if err := tx.Where(&row).
				Attrs(userDatamodel.Permission{Description: permissionDescriptions[p]}).
				FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", p, err)
			}
			permIDs[p] = row.ID
			res.Permissions++
		}

		var adminRoleID int64
		for _, def := range roles {
			role := userDatamodel.Role{Name: def.name}
			if err := tx.Where(&role).
				Attrs(userDatamodel.Role{Description: def.description}).
				FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", def.name, err)
			}
			res.Roles++
			if def.name == RoleAdmin {
				adminRoleID = role.ID
			}

			links := make([]userDatamodel.RolePermission, 0, len(def.permissions))
			for _, p := range def.permissions {
				links = append(links, userDatamodel.RolePermission{RoleID: role.ID, PermissionID: permIDs[p]})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				return fmt.Errorf("link permissions to role %s: %w", def.name, err)
			}
		}

		created, err := s.ensureAdmin(tx, admin, adminRoleID)
		if err != nil {
			return err
		}
		res.AdminCreated = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "seed completed",
		"roles", res.Roles,
		"permissions", res.Permissions,
		"admin_created", res.AdminCreated)
	return res, nil
}

func (s *Seeder) ensureAdmin(tx *gorm.DB, admin Admin, roleID int64) (bool, error) {
	email := strings.TrimSpace(admin.Email)

	var existing userDatamodel.User
	err := tx.Where("correo = ?", email).First(&existing).Error
	if err == nil {
		s.logger.Info("admin user already exists", "email", email)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup admin user: %w", err)
	}

	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Administrador"
	}
	u := userDatamodel.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
		Status:       userDatamodel.StatusActive,
	}
	if err := tx.Create(&u).Error; err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	return true, nil
}
