package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poctrail/assistant/internal/domain"
)

const (
	configCachePrefix = "aiconfig:"
	configCacheTTL    = 30 * time.Second
)

// cachedConfig is the cache wire form. The domain type hides the credential
// from JSON on purpose, so the cache spells its fields out explicitly; the
// credential stored here is the encrypted blob, never plaintext.
type cachedConfig struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	Enabled    bool      `json:"enabled"`
	Credential []byte    `json:"credential,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConfigCache fronts the tenant AI config table with a short-lived cache
type ConfigCache struct {
	client *Client
}

// NewConfigCache creates a new config cache
func NewConfigCache(client *Client) *ConfigCache {
	return &ConfigCache{client: client}
}

// Get retrieves a cached config for a tenant
func (c *ConfigCache) Get(ctx context.Context, tenantID uuid.UUID) (*domain.TenantAIConfig, error) {
	key := fmt.Sprintf("%s%s", configCachePrefix, tenantID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var entry cachedConfig
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached config: %w", err)
	}

	return &domain.TenantAIConfig{
		TenantID:   entry.TenantID,
		Enabled:    entry.Enabled,
		Credential: entry.Credential,
		UpdatedAt:  entry.UpdatedAt,
	}, nil
}

// Set caches a config for a tenant
func (c *ConfigCache) Set(ctx context.Context, cfg *domain.TenantAIConfig) error {
	key := fmt.Sprintf("%s%s", configCachePrefix, cfg.TenantID.String())

	entry := cachedConfig{
		TenantID:   cfg.TenantID,
		Enabled:    cfg.Enabled,
		Credential: cfg.Credential,
		UpdatedAt:  cfg.UpdatedAt,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached config: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, configCacheTTL).Err()
}

// Invalidate removes the cached config for a tenant
func (c *ConfigCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", configCachePrefix, tenantID.String())
	return c.client.rdb.Del(ctx, key).Err()
}

// FlushAll removes all cached configs
func (c *ConfigCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := configCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
