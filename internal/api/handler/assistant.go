package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/poctrail/assistant/internal/api/middleware"
	"github.com/poctrail/assistant/internal/api/response"
	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/service"
)

// AssistantHandler handles conversation endpoints
type AssistantHandler struct {
	assistant       *service.AssistantService
	status          *service.StatusService
	maxMessageChars int
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *service.AssistantService, status *service.StatusService, maxMessageChars int) *AssistantHandler {
	return &AssistantHandler{
		assistant:       assistant,
		status:          status,
		maxMessageChars: maxMessageChars,
	}
}

// Status reports whether the assistant is available to the caller
func (h *AssistantHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	status, err := h.status.Resolve(r.Context(), identity)
	if err != nil {
		response.InternalError(w, "failed to resolve assistant status")
		return
	}

	response.OK(w, status)
}

// NewSession opens a fresh conversation
func (h *AssistantHandler) NewSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if !identity.CanUseAssistant() {
		response.Forbidden(w, "assistant not available for this account")
		return
	}

	// The session being replaced can ride in the query or the body.
	prior := r.URL.Query().Get("priorSessionId")
	if prior == "" && r.Body != nil && r.ContentLength != 0 {
		var input struct {
			PriorSessionID string `json:"prior_session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		prior = input.PriorSessionID
	}

	info, err := h.assistant.NewSession(identity, prior)
	if err != nil {
		response.InternalError(w, "failed to open session")
		return
	}

	response.Created(w, map[string]any{
		"session_id": info.ID,
		"created_at": info.CreatedAt,
	})
}

// Message runs one conversation turn
func (h *AssistantHandler) Message(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if !identity.CanUseAssistant() {
		response.Forbidden(w, "assistant not available for this account")
		return
	}

	var input struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := decodeValid(r, &input); err != nil {
		badInput(w, err)
		return
	}
	if input.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}
	if utf8.RuneCountInString(input.Text) > h.maxMessageChars {
		response.BadRequest(w, "message too long")
		return
	}

	result, err := h.assistant.Message(r.Context(), identity, input.SessionID, input.Text)
	if err != nil {
		response.InternalError(w, "failed to run turn")
		return
	}

	response.OK(w, result)
}

// History returns the transcript of a live session
func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.assistant.History(identity, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		response.InternalError(w, "failed to load history")
		return
	}

	response.OK(w, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// CloseSession discards a conversation
func (h *AssistantHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	h.assistant.CloseSession(identity, chi.URLParam(r, "sessionID"))
	response.NoContent(w)
}
