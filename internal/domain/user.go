package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleMember     = "member"
	RoleManager    = "manager"
	RoleCustomer   = "customer"
	RoleSuperAdmin = "superadmin"
)

// User represents a platform user belonging to a tenant
type User struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Name       string `json:"name" validate:"required,max=255"`
	TenantName string `json:"tenant_name" validate:"required,max=255"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Identity is the authenticated caller extracted from a verified token.
// Every session operation and tool invocation is scoped by it.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
}

// CanUseAssistant reports whether the identity's role is eligible for the
// assistant at all. External customers and platform operators never are,
// regardless of tenant configuration.
func (i Identity) CanUseAssistant() bool {
	switch i.Role {
	case RoleMember, RoleManager:
		return true
	}
	return false
}

// CanManageAssistant reports whether the identity may change the tenant's
// assistant configuration.
func (i Identity) CanManageAssistant() bool {
	return i.Role == RoleManager
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListAssignable(ctx context.Context, tenantID uuid.UUID) ([]User, error)
}
