package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/llm"
)

// MockAIConfigRepository mocks domain.AIConfigRepository
type MockAIConfigRepository struct {
	mock.Mock
}

func (m *MockAIConfigRepository) Get(ctx context.Context, tenantID uuid.UUID) (*domain.TenantAIConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantAIConfig), args.Error(1)
}

func (m *MockAIConfigRepository) Upsert(ctx context.Context, tenantID uuid.UUID, enabled bool, credential []byte) error {
	args := m.Called(ctx, tenantID, enabled, credential)
	return args.Error(0)
}

// MockUserRepository mocks domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListAssignable(ctx context.Context, tenantID uuid.UUID) ([]domain.User, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockTenantRepository mocks domain.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

// MockProvider mocks llm.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.ChatResponse), args.Error(1)
}

// fakeConfigCache is an in-memory ConfigCache. A map fake beats expectation
// bookkeeping here because load paths hit the cache on every call.
type fakeConfigCache struct {
	mu            sync.Mutex
	entries       map[uuid.UUID]*domain.TenantAIConfig
	invalidations int
}

func newFakeConfigCache() *fakeConfigCache {
	return &fakeConfigCache{entries: make(map[uuid.UUID]*domain.TenantAIConfig)}
}

func (c *fakeConfigCache) Get(_ context.Context, tenantID uuid.UUID) (*domain.TenantAIConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[tenantID], nil
}

func (c *fakeConfigCache) Set(_ context.Context, cfg *domain.TenantAIConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cfg.TenantID] = cfg
	return nil
}

func (c *fakeConfigCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
	c.invalidations++
	return nil
}

// fakeBridge is a scripted ToolBridge
type fakeBridge struct {
	schemas []llm.ToolSchema
	execute func(caller domain.Identity, name, input string) string
	calls   []string
}

func (b *fakeBridge) Schemas() []llm.ToolSchema {
	return b.schemas
}

func (b *fakeBridge) Execute(_ context.Context, caller domain.Identity, name, input string) string {
	b.calls = append(b.calls, name)
	if b.execute == nil {
		return "{}"
	}
	return b.execute(caller, name, input)
}
