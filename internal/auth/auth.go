package auth

import (
	"context"
)

// Credential is the login view of an active user joined with its role.
type Credential struct {
	UserID       int64  `db:"id"`
	Name         string `db:"nombre"`
	Email        string `db:"correo"`
	PasswordHash string `db:"contrasena"`
	RoleID       int64  `db:"rol_id"`
	RoleName     string `db:"rol_nombre"`
}

type RepositoryAPI interface {
	PermissionRepository

	// FindActiveByEmail returns nil without error when no active user matches.
	FindActiveByEmail(ctx context.Context, email string) (*Credential, error)
	RecordAccess(ctx context.Context, userID int64, kind string, authorized bool) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	// WithinTx runs fn against a repository bound to one transaction, which
	// is committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(RepositoryAPI) error) error
}

// LoginGuard is the part of Guard the login flow depends on.
type LoginGuard interface {
	IsLocked(addr string) bool
	RegisterFailure(addr string) bool
	Reset(addr string)
}

// State is the position of a login attempt in the authentication flow.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateChecking        State = "checking"
	StateAuthenticated   State = "authenticated"
	StateRejected        State = "rejected"
)

type LoginResult struct {
	State    State
	UserID   int64
	Name     string
	RoleID   int64
	RoleName string
}

func (r LoginResult) ToV1() UserV1 {
	return UserV1{
		ID:       r.UserID,
		Name:     r.Name,
		RoleID:   r.RoleID,
		RoleName: r.RoleName,
	}
}
