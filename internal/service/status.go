package service

import (
	"context"

	"github.com/poctrail/assistant/internal/domain"
)

// Status messages. The ineligible one deliberately says nothing about how
// the tenant is configured.
const (
	ineligibleMessage    = "The assistant is not available for your account."
	disabledMessage      = "The assistant is disabled for your workspace. A workspace manager can enable it in settings."
	notConfiguredMessage = "The assistant isn't fully configured yet. A workspace manager needs to add a model credential in settings."
)

// StatusService answers whether the assistant is available to one caller
type StatusService struct {
	configs *TenantConfigService
}

// NewStatusService creates a new status service
func NewStatusService(configs *TenantConfigService) *StatusService {
	return &StatusService{configs: configs}
}

// Resolve reports assistant availability for the caller. Ineligible roles
// get a fixed message with both flags zeroed, so whether the tenant holds a
// credential never leaks to accounts that could not use it anyway.
func (s *StatusService) Resolve(ctx context.Context, caller domain.Identity) (*domain.AIConfigStatus, error) {
	if !caller.CanUseAssistant() {
		return &domain.AIConfigStatus{Message: ineligibleMessage}, nil
	}

	status, err := s.configs.Get(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}

	switch {
	case !status.Enabled:
		status.Message = disabledMessage
	case !status.HasCredential:
		status.Message = notConfiguredMessage
	}
	return status, nil
}
