package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/security"
	"github.com/poctrail/assistant/internal/session"
)

// ConfigCache fronts tenant assistant config reads with a short-lived cache
type ConfigCache interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*domain.TenantAIConfig, error)
	Set(ctx context.Context, cfg *domain.TenantAIConfig) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// TenantConfigService manages per-tenant assistant configuration. Credentials
// are sealed before they reach storage and only ever decrypted here, right
// before an upstream call needs one.
type TenantConfigService struct {
	repo      domain.AIConfigRepository
	cache     ConfigCache
	encryptor *security.Encryptor
	sessions  *session.Registry
}

// NewTenantConfigService creates a new tenant config service
func NewTenantConfigService(
	repo domain.AIConfigRepository,
	cache ConfigCache,
	encryptor *security.Encryptor,
	sessions *session.Registry,
) *TenantConfigService {
	return &TenantConfigService{
		repo:      repo,
		cache:     cache,
		encryptor: encryptor,
		sessions:  sessions,
	}
}

// Get returns the tenant's assistant configuration flags. The credential
// itself never leaves this service, only whether one is stored.
func (s *TenantConfigService) Get(ctx context.Context, tenantID uuid.UUID) (*domain.AIConfigStatus, error) {
	cfg, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &domain.AIConfigStatus{
		Enabled:       cfg != nil && cfg.Enabled,
		HasCredential: cfg.HasCredential(),
	}, nil
}

// Set applies a configuration change. An omitted credential keeps the stored
// one, so toggling the flag never forces re-entry of the key. Disabling
// closes every live session of the tenant before Set returns; once the
// caller sees success, no conversation is still running against the old
// state.
func (s *TenantConfigService) Set(ctx context.Context, tenantID uuid.UUID, input domain.AIConfigUpdate) (*domain.AIConfigStatus, error) {
	var credential []byte
	if input.Credential != nil {
		sealed, err := s.encryptor.EncryptCredential(*input.Credential)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt credential: %w", err)
		}
		credential = sealed
	}

	enabled := input.Enabled != nil && *input.Enabled
	if err := s.repo.Upsert(ctx, tenantID, enabled, credential); err != nil {
		return nil, err
	}

	// The next read has to see this write, not a cached predecessor.
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID.String()).Msg("failed to invalidate config cache")
	}

	if !enabled {
		if closed := s.sessions.InvalidateForTenant(tenantID); closed > 0 {
			log.Info().
				Int("sessions", closed).
				Str("tenant_id", tenantID.String()).
				Msg("assistant disabled, closed live sessions")
		}
	}

	return s.Get(ctx, tenantID)
}

// UpstreamCredential returns the tenant's decrypted upstream key, or
// ErrAssistantNotConfigured when the assistant is off, no credential is
// stored, or the stored blob cannot be opened.
func (s *TenantConfigService) UpstreamCredential(ctx context.Context, tenantID uuid.UUID) (string, error) {
	cfg, err := s.load(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if cfg == nil || !cfg.Enabled || !cfg.HasCredential() {
		return "", domain.ErrAssistantNotConfigured
	}

	credential, err := s.encryptor.DecryptCredential(cfg.Credential)
	if err != nil {
		// A blob sealed under a rotated key cannot be used.
		log.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("failed to decrypt tenant credential")
		return "", domain.ErrAssistantNotConfigured
	}

	return credential, nil
}

// load reads the tenant's config through the cache
func (s *TenantConfigService) load(ctx context.Context, tenantID uuid.UUID) (*domain.TenantAIConfig, error) {
	cached, err := s.cache.Get(ctx, tenantID)
	if err != nil {
		log.Warn().Err(err).Msg("config cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	cfg, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if cfg != nil {
		if err := s.cache.Set(ctx, cfg); err != nil {
			log.Warn().Err(err).Msg("failed to cache tenant config")
		}
	}

	return cfg, nil
}
