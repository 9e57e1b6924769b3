package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/config"
	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/metrics"
	"github.com/poctrail/assistant/internal/security"
)

// State is the lifecycle state of a session
type State int

const (
	StateActive State = iota
	StateExpired
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session holds one conversation entirely in process memory.
//
// Locking: turnMu serializes turns and is held for the whole model round
// trip. mu guards the fields below it and is only ever held for
// constant-time work, so the sweeper and registry never wait on a turn.
// Lock order is always registry.mu before Session.mu, never the reverse.
type Session struct {
	id        string
	tenantID  uuid.UUID
	userID    uuid.UUID
	createdAt time.Time

	turnMu sync.Mutex

	mu             sync.Mutex
	state          State
	messages       []domain.Message
	lastActivityAt time.Time
	inFlight       bool
}

// Info is a point-in-time view of a session
type Info struct {
	ID             string
	TenantID       uuid.UUID
	UserID         uuid.UUID
	State          State
	CreatedAt      time.Time
	LastActivityAt time.Time
	Messages       int
}

// Registry owns every live session and their lifecycle
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTimeout   time.Duration
	sweepInterval time.Duration
	maxMessages   int

	now     func() time.Time
	metrics *metrics.Metrics
}

// NewRegistry creates a new session registry
func NewRegistry(cfg config.AssistantConfig, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		idleTimeout:   cfg.IdleTimeout,
		sweepInterval: cfg.SweepInterval,
		maxMessages:   cfg.MaxMessages,
		now:           time.Now,
		metrics:       m,
	}
}

// Create opens a new session for the user and returns its view
func (r *Registry) Create(tenantID, userID uuid.UUID) (Info, error) {
	id, err := security.NewSessionToken()
	if err != nil {
		return Info{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := r.now()
	s := &Session{
		id:             id,
		tenantID:       tenantID,
		userID:         userID,
		createdAt:      now,
		state:          StateActive,
		lastActivityAt: now,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.metrics.ActiveSessions.Inc()

	return s.info(), nil
}

// Get returns the current view of a session owned by the caller
func (r *Registry) Get(tenantID, userID uuid.UUID, id string) (Info, error) {
	s, err := r.lookup(tenantID, userID, id)
	if err != nil {
		return Info{}, err
	}
	return s.info(), nil
}

// Touch resets the inactivity clock of an active session
func (r *Registry) Touch(tenantID, userID uuid.UUID, id string) error {
	s, err := r.lookup(tenantID, userID, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.ErrSessionNotFound
	}
	s.touchLocked(r.now())
	return nil
}

// History returns a copy of the session transcript in insertion order and
// counts as activity
func (r *Registry) History(tenantID, userID uuid.UUID, id string) ([]domain.Message, error) {
	s, err := r.lookup(tenantID, userID, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, domain.ErrSessionNotFound
	}
	s.touchLocked(r.now())
	return s.historyLocked(), nil
}

// BeginTurn reserves the session for one turn, blocking while another turn
// on the same session is in flight. The caller must call End on the
// returned turn exactly once.
func (r *Registry) BeginTurn(tenantID, userID uuid.UUID, id string) (*Turn, error) {
	s, err := r.lookup(tenantID, userID, id)
	if err != nil {
		return nil, err
	}

	s.turnMu.Lock()

	s.mu.Lock()
	// The session may have been closed or swept while we waited.
	if s.state != StateActive {
		s.mu.Unlock()
		s.turnMu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	// A turn appends one user and one assistant message; refuse to start
	// one that cannot fit.
	if r.maxMessages > 0 && len(s.messages)+2 > r.maxMessages {
		s.mu.Unlock()
		s.turnMu.Unlock()
		return nil, domain.ErrConversationFull
	}
	s.inFlight = true
	s.touchLocked(r.now())
	s.mu.Unlock()

	return &Turn{r: r, s: s}, nil
}

// Close closes a session owned by the caller. Closing an absent or already
// closed session is a no-op.
func (r *Registry) Close(tenantID, userID uuid.UUID, id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok && s.tenantID == tenantID && s.userID == userID {
		delete(r.sessions, id)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	r.metrics.ActiveSessions.Dec()
}

// InvalidateForTenant closes every session of the tenant in one atomic pass
// and returns how many it closed. No new session for the tenant can be
// created while the pass runs.
func (r *Registry) InvalidateForTenant(tenantID uuid.UUID) int {
	r.mu.Lock()
	var closed []*Session
	for id, s := range r.sessions {
		if s.tenantID != tenantID {
			continue
		}
		delete(r.sessions, id)
		closed = append(closed, s)
	}
	r.mu.Unlock()

	for _, s := range closed {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		r.metrics.ActiveSessions.Dec()
	}

	return len(closed)
}

// SweepOnce expires every idle session and returns how many it reclaimed.
// Sessions with a turn in flight are never expired, however long the turn
// runs.
func (r *Registry) SweepOnce() int {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		s.mu.Lock()
		overdue := s.state == StateActive && !s.inFlight && !s.lastActivityAt.After(cutoff)
		if overdue {
			s.state = StateExpired
			s.messages = nil
		}
		s.mu.Unlock()

		if overdue {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for range expired {
		r.metrics.ActiveSessions.Dec()
		r.metrics.SessionsExpired.Inc()
	}

	return len(expired)
}

// Run sweeps idle sessions on a fixed interval until the context ends
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.SweepOnce(); n > 0 {
				log.Debug().Int("expired", n).Msg("reclaimed idle sessions")
			}
		}
	}
}

// Len returns how many sessions the registry currently holds
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) lookup(tenantID, userID uuid.UUID, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	// An unknown id and someone else's id are indistinguishable on purpose.
	if !ok || s.tenantID != tenantID || s.userID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (s *Session) info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:             s.id,
		TenantID:       s.tenantID,
		UserID:         s.userID,
		State:          s.state,
		CreatedAt:      s.createdAt,
		LastActivityAt: s.lastActivityAt,
		Messages:       len(s.messages),
	}
}

// touchLocked advances the inactivity clock, never rewinding it. Callers
// hold s.mu.
func (s *Session) touchLocked(t time.Time) {
	if t.After(s.lastActivityAt) {
		s.lastActivityAt = t
	}
}

// historyLocked copies the transcript. Callers hold s.mu.
func (s *Session) historyLocked() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Turn is a lease on a session for one model round trip
type Turn struct {
	r     *Registry
	s     *Session
	ended bool
}

// SessionID returns the id of the leased session
func (t *Turn) SessionID() string {
	return t.s.id
}

// History returns a copy of the transcript including any messages this
// turn has appended
func (t *Turn) History() []domain.Message {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.historyLocked()
}

// AppendUser appends the inbound user message and bumps activity
func (t *Turn) AppendUser(text string) error {
	return t.append(domain.RoleUser, text)
}

// AppendAssistant appends the assistant reply and bumps activity. It
// reports false when the session was closed mid-turn and the reply was
// discarded.
func (t *Turn) AppendAssistant(text string) bool {
	return t.append(domain.RoleAssistant, text) == nil
}

func (t *Turn) append(role domain.MessageRole, text string) error {
	now := t.r.now()

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.state != StateActive {
		return domain.ErrSessionNotFound
	}
	t.s.messages = append(t.s.messages, domain.Message{
		Role:      role,
		Text:      text,
		Timestamp: now,
	})
	t.s.touchLocked(now)
	return nil
}

// End releases the session for the next turn. It is safe to call once per
// turn, typically deferred.
func (t *Turn) End() {
	if t.ended {
		return
	}
	t.ended = true

	t.s.mu.Lock()
	t.s.inFlight = false
	t.s.touchLocked(t.r.now())
	t.s.mu.Unlock()

	t.s.turnMu.Unlock()
}
