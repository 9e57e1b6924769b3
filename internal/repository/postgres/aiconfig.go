package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/poctrail/assistant/internal/domain"
)

// AIConfigRepository handles tenant assistant configuration storage
type AIConfigRepository struct {
	db *DB
}

// NewAIConfigRepository creates a new assistant config repository
func NewAIConfigRepository(db *DB) *AIConfigRepository {
	return &AIConfigRepository{db: db}
}

// Get retrieves a tenant's assistant configuration. Returns nil when the
// tenant has never stored one.
func (r *AIConfigRepository) Get(ctx context.Context, tenantID uuid.UUID) (*domain.TenantAIConfig, error) {
	query := `
		SELECT tenant_id, enabled, credential, created_at, updated_at
		FROM tenant_ai_configs
		WHERE tenant_id = $1
	`

	var cfg domain.TenantAIConfig
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&cfg.TenantID,
		&cfg.Enabled,
		&cfg.Credential,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assistant config: %w", err)
	}

	return &cfg, nil
}

// Upsert writes a tenant's assistant configuration. A nil credential keeps
// whatever credential is already stored; only a non-nil value replaces it.
func (r *AIConfigRepository) Upsert(ctx context.Context, tenantID uuid.UUID, enabled bool, credential []byte) error {
	query := `
		INSERT INTO tenant_ai_configs (tenant_id, enabled, credential, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (tenant_id) DO UPDATE
		SET enabled = $2,
		    credential = COALESCE($3, tenant_ai_configs.credential),
		    updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, tenantID, enabled, credential)
	if err != nil {
		return fmt.Errorf("failed to upsert assistant config: %w", err)
	}

	return nil
}
