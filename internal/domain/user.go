package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user is deactivated")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserEmailInvalid = errors.New("a valid email is required")
	ErrUserNameRequired = errors.New("name is required")
	ErrRoleInvalid      = errors.New("invalid role")
)

// Role classifies a principal for authorization decisions.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to back-office personnel.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleAgent
}

// User is an authenticated principal. Users are deactivated, never deleted.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`

	// Per-manager permission flags; meaningful only when Role is manager.
	CanDeleteCollections bool `json:"canDeleteCollections"`
	CanDeleteCustomers   bool `json:"canDeleteCustomers"`
	CanDeleteUsers       bool `json:"canDeleteUsers"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Validate() error {
	if !strings.Contains(u.Email, "@") {
		return ErrUserEmailInvalid
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrUserNameRequired
	}
	if !u.Role.Valid() {
		return ErrRoleInvalid
	}
	return nil
}

// UserRepository is the storage contract for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	CreateTx(ctx context.Context, tx any, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) ([]*User, int64, error)
	UpdateFlags(ctx context.Context, id uuid.UUID, canDeleteCollections, canDeleteCustomers, canDeleteUsers bool) (*User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
