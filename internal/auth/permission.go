package auth

import (
	"sort"
	"strings"
)

// Permission is a "<module>.<name>" capability as stored in permisos.
type Permission string

const (
	PermViewAlerts       Permission = "alertas.ver_alertas"
	PermManageAlerts     Permission = "alertas.gestionar_alertas"
	PermViewUsers        Permission = "usuarios.ver_usuarios"
	PermManageUsers      Permission = "usuarios.gestionar_usuarios"
	PermViewAccessLog    Permission = "acceso.ver_registro_accesos"
	PermRegisterAccess   Permission = "acceso.registrar_acceso"
	PermViewVisitors     Permission = "visitantes.ver_visitantes"
	PermRegisterVisitors Permission = "visitantes.registrar_visitantes"
	PermViewDashboard    Permission = "dashboard.ver_dashboard"
)

// KnownPermissions lists every permission the service checks or seeds.
var KnownPermissions = []Permission{
	PermViewAlerts,
	PermManageAlerts,
	PermViewUsers,
	PermManageUsers,
	PermViewAccessLog,
	PermRegisterAccess,
	PermViewVisitors,
	PermRegisterVisitors,
	PermViewDashboard,
}

func NewPermission(module, name string) Permission {
	return Permission(module + "." + name)
}

func (p Permission) Module() string {
	module, _, _ := strings.Cut(string(p), ".")
	return module
}

func (p Permission) Name() string {
	_, name, _ := strings.Cut(string(p), ".")
	return name
}

func (p Permission) String() string { return string(p) }

type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...string) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[Permission(p)] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Strings returns the set sorted, never nil.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
