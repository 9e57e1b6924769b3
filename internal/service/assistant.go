package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/llm"
	"github.com/poctrail/assistant/internal/metrics"
	"github.com/poctrail/assistant/internal/security"
	"github.com/poctrail/assistant/internal/session"
)

// Synthetic assistant replies for caught turn failures. Exactly one of these
// is appended per failed turn; raw upstream detail never reaches a session.
const (
	msgNotConfigured = "The assistant isn't set up for your workspace yet. A workspace manager can enable it and add a model credential in settings."
	msgUpstreamAuth  = "The workspace's model credential was rejected by the model service. A workspace manager needs to replace it in settings."
	msgRateLimited   = "The model service is throttling this workspace right now. Give it a little while before trying again."
	msgUnavailable   = "The model service didn't answer. Your message is kept in this conversation, so just send it again in a moment."
	msgToolRounds    = "I couldn't finish looking that up within this turn. Try a narrower question."
	msgInternal      = "Something went wrong while preparing an answer. Try again, and start a new conversation if it keeps happening."
	msgClosed        = "This conversation was closed before the answer was ready."
	msgFull          = "This conversation has reached its length limit. Close it and start a new one to continue."
)

// Turn outcome labels for metrics
const (
	outcomeOK            = "ok"
	outcomeConfiguration = "configuration_error"
	outcomeUpstreamAuth  = "upstream_auth"
	outcomeRateLimited   = "rate_limited"
	outcomeUnavailable   = "upstream_unavailable"
	outcomeToolRounds    = "tool_rounds_exhausted"
	outcomeInternal      = "internal_error"
	outcomeDiscarded     = "discarded"
	outcomeFull          = "conversation_full"
)

// ToolBridge exposes the workspace tools to a turn
type ToolBridge interface {
	Schemas() []llm.ToolSchema
	Execute(ctx context.Context, caller domain.Identity, name, input string) string
}

// TurnResult is what one conversation turn produced. Messages is the full
// transcript of the session that served the turn, ending with the assistant
// reply for this turn.
type TurnResult struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`

	// Discarded reports that the closing reply was not recorded in the
	// session, either because the session was closed mid-turn or because the
	// turn was refused outright.
	Discarded bool `json:"-"`
}

// Reply returns the assistant message that closed the turn
func (r *TurnResult) Reply() domain.Message {
	return r.Messages[len(r.Messages)-1]
}

// AssistantService runs conversation turns end to end: session bookkeeping,
// upstream model calls, tool execution, and failure translation.
type AssistantService struct {
	registry  *session.Registry
	configs   *TenantConfigService
	providers *llm.Registry
	bridge    ToolBridge
	users     domain.UserRepository
	redactor  *security.Redactor
	metrics   *metrics.Metrics

	maxToolRounds int
	retryWait     time.Duration
}

// NewAssistantService creates a new assistant service
func NewAssistantService(
	registry *session.Registry,
	configs *TenantConfigService,
	providers *llm.Registry,
	bridge ToolBridge,
	users domain.UserRepository,
	m *metrics.Metrics,
	maxToolRounds int,
) *AssistantService {
	if maxToolRounds <= 0 {
		maxToolRounds = 4
	}
	return &AssistantService{
		registry:      registry,
		configs:       configs,
		providers:     providers,
		bridge:        bridge,
		users:         users,
		redactor:      security.NewRedactor(),
		metrics:       m,
		maxToolRounds: maxToolRounds,
		retryWait:     500 * time.Millisecond,
	}
}

// NewSession opens a fresh conversation, closing the previous one first when
// the caller names it
func (s *AssistantService) NewSession(caller domain.Identity, priorSessionID string) (session.Info, error) {
	if priorSessionID != "" {
		s.registry.Close(caller.TenantID, caller.UserID, priorSessionID)
	}
	return s.registry.Create(caller.TenantID, caller.UserID)
}

// CloseSession discards a conversation. Unknown ids are ignored.
func (s *AssistantService) CloseSession(caller domain.Identity, sessionID string) {
	s.registry.Close(caller.TenantID, caller.UserID, sessionID)
}

// History returns the transcript of a live session in insertion order
func (s *AssistantService) History(caller domain.Identity, sessionID string) ([]domain.Message, error) {
	return s.registry.History(caller.TenantID, caller.UserID, sessionID)
}

// Message runs one conversation turn. A missing or dead session id starts a
// fresh session rather than failing; the returned TurnResult names the
// session that actually served the turn.
func (s *AssistantService) Message(ctx context.Context, caller domain.Identity, sessionID, text string) (*TurnResult, error) {
	turn, err := s.beginTurn(caller, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationFull) {
			// The session stays untouched; tell the caller how to move on
			// without recording anything.
			s.metrics.TurnsTotal.WithLabelValues(outcomeFull).Inc()
			history, herr := s.registry.History(caller.TenantID, caller.UserID, sessionID)
			if herr != nil {
				history = nil
			}
			return &TurnResult{
				SessionID: sessionID,
				Messages:  append(history, assistantMessage(msgFull)),
				Discarded: true,
			}, nil
		}
		return nil, err
	}
	defer turn.End()

	if err := turn.AppendUser(text); err != nil {
		// Closed in the instant between lease and append; nothing was
		// recorded.
		s.metrics.TurnsTotal.WithLabelValues(outcomeDiscarded).Inc()
		return &TurnResult{
			SessionID: turn.SessionID(),
			Messages:  []domain.Message{assistantMessage(msgClosed)},
			Discarded: true,
		}, nil
	}

	reply, outcome := s.runTurn(ctx, caller, turn)

	if !turn.AppendAssistant(reply.Text) {
		// The reply arrived after the session was closed. It is dropped, and
		// the caller sees the closure instead of an answer no conversation
		// can hold.
		s.metrics.TurnsTotal.WithLabelValues(outcomeDiscarded).Inc()
		return &TurnResult{
			SessionID: turn.SessionID(),
			Messages:  append(turn.History(), assistantMessage(msgClosed)),
			Discarded: true,
		}, nil
	}

	s.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	return &TurnResult{SessionID: turn.SessionID(), Messages: turn.History()}, nil
}

// beginTurn leases the named session, or a brand new one when the id no
// longer resolves to anything the caller owns
func (s *AssistantService) beginTurn(caller domain.Identity, sessionID string) (*session.Turn, error) {
	if sessionID != "" {
		turn, err := s.registry.BeginTurn(caller.TenantID, caller.UserID, sessionID)
		if err == nil || !errors.Is(err, domain.ErrSessionNotFound) {
			return turn, err
		}
		// Expired, closed, or never ours: start over silently.
	}

	info, err := s.registry.Create(caller.TenantID, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.registry.BeginTurn(caller.TenantID, caller.UserID, info.ID)
}

// runTurn produces the assistant reply for a leased turn. It never returns
// an error: every caught failure becomes a synthetic reply plus an outcome
// label, and the raw cause stops at the log.
func (s *AssistantService) runTurn(ctx context.Context, caller domain.Identity, turn *session.Turn) (domain.Message, string) {
	credential, err := s.configs.UpstreamCredential(ctx, caller.TenantID)
	if err != nil {
		return s.translate(err)
	}

	provider, err := s.providers.Get("")
	if err != nil {
		log.Error().Err(err).Msg("no usable model provider configured")
		return assistantMessage(msgNotConfigured), outcomeConfiguration
	}

	system := llm.BuildSystemPrompt(s.callerName(ctx, caller), time.Now())
	messages := toUpstream(turn.History())
	tools := s.bridge.Schemas()

	for round := 0; round < s.maxToolRounds; round++ {
		resp, err := s.chat(ctx, provider, llm.ChatRequest{
			Credential: credential,
			System:     system,
			Messages:   messages,
			Tools:      tools,
		})
		if err != nil {
			return s.translate(err)
		}

		if len(resp.ToolCalls) == 0 {
			return assistantMessage(resp.Text), outcomeOK
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := s.bridge.Execute(ctx, caller, call.Name, call.Arguments)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Text:       result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	log.Warn().
		Str("session_id", turn.SessionID()).
		Int("rounds", s.maxToolRounds).
		Msg("tool round budget exhausted")
	return assistantMessage(msgToolRounds), outcomeToolRounds
}

// chat performs one upstream call, retrying exactly once when the service
// looks transiently unavailable
func (s *AssistantService) chat(ctx context.Context, provider llm.Provider, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := provider.Chat(ctx, req)
	if err == nil || !errors.Is(err, domain.ErrUpstreamUnavailable) {
		return resp, err
	}

	s.metrics.UpstreamRetries.Inc()
	log.Warn().Str("cause", s.redactor.Summarize(err)).Msg("retrying model call")

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.retryWait):
	}

	return provider.Chat(ctx, req)
}

// translate maps a turn failure to its synthetic reply and outcome label
func (s *AssistantService) translate(err error) (domain.Message, string) {
	switch {
	case errors.Is(err, domain.ErrAssistantNotConfigured):
		return assistantMessage(msgNotConfigured), outcomeConfiguration
	case errors.Is(err, domain.ErrUpstreamAuth):
		log.Warn().Str("cause", s.redactor.Summarize(err)).Msg("upstream rejected tenant credential")
		return assistantMessage(msgUpstreamAuth), outcomeUpstreamAuth
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return assistantMessage(msgRateLimited), outcomeRateLimited
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Warn().Str("cause", s.redactor.Summarize(err)).Msg("model service unavailable")
		return assistantMessage(msgUnavailable), outcomeUnavailable
	default:
		log.Error().Str("cause", s.redactor.Summarize(err)).Msg("turn failed")
		return assistantMessage(msgInternal), outcomeInternal
	}
}

// callerName fetches the caller's display name for the system prompt
func (s *AssistantService) callerName(ctx context.Context, caller domain.Identity) string {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil || user == nil {
		return "a workspace member"
	}
	return user.Name
}

// assistantMessage wraps text as an assistant-role message stamped now
func assistantMessage(text string) domain.Message {
	return domain.Message{
		Role:      domain.RoleAssistant,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// toUpstream converts the stored transcript for the provider. Tool traffic
// is never stored, so this is a straight role mapping.
func toUpstream(history []domain.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Text: m.Text})
	}
	return out
}
