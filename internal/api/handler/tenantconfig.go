package handler

import (
	"net/http"

	"github.com/poctrail/assistant/internal/api/middleware"
	"github.com/poctrail/assistant/internal/api/response"
	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/service"
)

// TenantConfigHandler handles tenant assistant configuration endpoints
type TenantConfigHandler struct {
	configs *service.TenantConfigService
}

// NewTenantConfigHandler creates a new tenant config handler
func NewTenantConfigHandler(configs *service.TenantConfigService) *TenantConfigHandler {
	return &TenantConfigHandler{configs: configs}
}

// Get returns the tenant's assistant configuration flags
func (h *TenantConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	status, err := h.configs.Get(r.Context(), identity.TenantID)
	if err != nil {
		response.InternalError(w, "failed to load assistant config")
		return
	}

	response.OK(w, status)
}

// Put applies an assistant configuration change. Omitting the credential
// keeps the stored one; disabling closes every live session of the tenant
// before this responds.
func (h *TenantConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.AIConfigUpdate
	if err := decodeValid(r, &input); err != nil {
		badInput(w, err)
		return
	}

	status, err := h.configs.Set(r.Context(), identity.TenantID, input)
	if err != nil {
		response.InternalError(w, "failed to update assistant config")
		return
	}

	response.OK(w, status)
}
