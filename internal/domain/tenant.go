package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an organization using the platform
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantAIConfig holds a tenant's assistant settings. Credential is the
// encrypted upstream API key; while it is empty the feature is inert for the
// tenant no matter what Enabled says.
type TenantAIConfig struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	Enabled    bool      `json:"enabled"`
	Credential []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasCredential reports whether an upstream credential is stored
func (c *TenantAIConfig) HasCredential() bool {
	return c != nil && len(c.Credential) > 0
}

// AIConfigUpdate represents an assistant configuration change. A nil
// Credential leaves the stored credential untouched.
type AIConfigUpdate struct {
	Enabled    *bool   `json:"enabled" validate:"required"`
	Credential *string `json:"credential,omitempty" validate:"omitempty,min=8,max=512"`
}

// AIConfigStatus is the assistant availability answer for one user
type AIConfigStatus struct {
	Enabled       bool   `json:"enabled"`
	HasCredential bool   `json:"has_credential"`
	Message       string `json:"message,omitempty"`
}

// TenantRepository defines the interface for tenant storage
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

// AIConfigRepository defines the interface for tenant assistant config
// storage. Upsert with a nil credential preserves any stored credential.
type AIConfigRepository interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*TenantAIConfig, error)
	Upsert(ctx context.Context, tenantID uuid.UUID, enabled bool, credential []byte) error
}
