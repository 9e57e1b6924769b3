package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/poctrail/assistant/internal/config"
	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/metrics"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T) (*Registry, *fakeClock) {
	t.Helper()

	cfg := config.AssistantConfig{
		IdleTimeout:   10 * time.Minute,
		SweepInterval: time.Minute,
		MaxMessages:   200,
	}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	r := NewRegistry(cfg, metrics.Global())
	r.now = clock.Now
	return r, clock
}

func TestRegistryCreateAndGet(t *testing.T) {
	r, clock := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if info.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if info.State != StateActive {
		t.Fatalf("expected active state, got %v", info.State)
	}
	if !info.LastActivityAt.Equal(clock.Now()) {
		t.Fatalf("expected last activity %v, got %v", clock.Now(), info.LastActivityAt)
	}

	got, err := r.Get(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != info.ID || got.TenantID != tenantID || got.UserID != userID {
		t.Fatalf("unexpected session view: %+v", got)
	}

	second, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.ID == info.ID {
		t.Fatal("expected distinct session ids")
	}
}

func TestRegistryLookupHidesOtherOwners(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := r.Get(tenantID, uuid.New(), info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found for another user, got %v", err)
	}
	if _, err := r.Get(uuid.New(), userID, info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found for another tenant, got %v", err)
	}
	if _, err := r.Get(tenantID, userID, "no-such-session"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found for unknown id, got %v", err)
	}
}

func TestRegistryTurnAppendsInOrder(t *testing.T) {
	r, clock := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	turn, err := r.BeginTurn(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	if err := turn.AppendUser("list my pocs"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	clock.Advance(2 * time.Second)
	if !turn.AppendAssistant("you have two active pocs") {
		t.Fatal("expected assistant append to land")
	}
	turn.End()

	history, err := r.History(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != domain.RoleUser || history[0].Text != "list my pocs" {
		t.Fatalf("unexpected first message: %+v", history[0])
	}
	if history[1].Role != domain.RoleAssistant || history[1].Text != "you have two active pocs" {
		t.Fatalf("unexpected second message: %+v", history[1])
	}
	if history[1].Timestamp.Before(history[0].Timestamp) {
		t.Fatal("expected timestamps in insertion order")
	}
}

func TestRegistryBeginTurnUnknownSession(t *testing.T) {
	r, _ := newTestRegistry(t)

	if _, err := r.BeginTurn(uuid.New(), uuid.New(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRegistryTouchKeepsSessionAlive(t *testing.T) {
	r, clock := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Advance(9 * time.Minute)
	if err := r.Touch(tenantID, userID, info.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}

	clock.Advance(9 * time.Minute)
	if n := r.SweepOnce(); n != 0 {
		t.Fatalf("expected touched session to survive, swept %d", n)
	}

	clock.Advance(2 * time.Minute)
	if n := r.SweepOnce(); n != 1 {
		t.Fatalf("expected session reclaimed after idle timeout, swept %d", n)
	}
	if _, err := r.Get(tenantID, userID, info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found after expiry, got %v", err)
	}
}

func TestRegistryTouchNeverRewindsActivity(t *testing.T) {
	r, clock := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Advance(5 * time.Minute)
	if err := r.Touch(tenantID, userID, info.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}
	high := clock.Now()

	clock.Advance(-3 * time.Minute)
	if err := r.Touch(tenantID, userID, info.ID); err != nil {
		t.Fatalf("touch with rewound clock: %v", err)
	}

	got, err := r.Get(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.LastActivityAt.Equal(high) {
		t.Fatalf("expected last activity to stay at %v, got %v", high, got.LastActivityAt)
	}
}

func TestRegistrySweepExpiresAtThreshold(t *testing.T) {
	r, clock := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	if _, err := r.Create(tenantID, userID); err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Advance(10*time.Minute - time.Second)
	if n := r.SweepOnce(); n != 0 {
		t.Fatalf("expected no expiry just under the threshold, swept %d", n)
	}

	clock.Advance(time.Second)
	if n := r.SweepOnce(); n != 1 {
		t.Fatalf("expected expiry at the threshold, swept %d", n)
	}
}

func TestRegistrySweepSkipsInFlightTurn(t *testing.T) {
	r, clock := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	turn, err := r.BeginTurn(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("begin turn: %v", err)
	}

	clock.Advance(time.Hour)
	if n := r.SweepOnce(); n != 0 {
		t.Fatalf("expected in-flight session to survive sweep, swept %d", n)
	}

	turn.End()
	clock.Advance(11 * time.Minute)
	if n := r.SweepOnce(); n != 1 {
		t.Fatalf("expected session reclaimed once the turn ended, swept %d", n)
	}
}

func TestRegistryCloseIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r.Close(tenantID, userID, info.ID)
	r.Close(tenantID, userID, info.ID)
	r.Close(tenantID, userID, "never-existed")

	if _, err := r.Get(tenantID, userID, info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found after close, got %v", err)
	}
}

func TestRegistryCloseDoesNotTouchOtherOwners(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r.Close(tenantID, uuid.New(), info.ID)

	if _, err := r.Get(tenantID, userID, info.ID); err != nil {
		t.Fatalf("expected session to survive a stranger's close, got %v", err)
	}
}

func TestRegistryCloseMidTurnDiscardsReply(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	turn, err := r.BeginTurn(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	if err := turn.AppendUser("still there?"); err != nil {
		t.Fatalf("append user: %v", err)
	}

	r.Close(tenantID, userID, info.ID)

	if turn.AppendAssistant("late upstream reply") {
		t.Fatal("expected reply to a closed session to be discarded")
	}
	turn.End()

	if _, err := r.Get(tenantID, userID, info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected closed session to stay gone, got %v", err)
	}
}

func TestRegistryTurnsSerialized(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := r.BeginTurn(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("begin first turn: %v", err)
	}

	secondDone := make(chan error, 1)
	go func() {
		second, err := r.BeginTurn(tenantID, userID, info.ID)
		if err == nil {
			second.End()
		}
		secondDone <- err
	}()

	select {
	case err := <-secondDone:
		t.Fatalf("second turn started while first was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	first.End()

	select {
	case err := <-secondDone:
		if err != nil {
			t.Fatalf("second turn after first ended: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second turn never started after first ended")
	}
}

func TestRegistrySessionsIndependent(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	first, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	turnA, err := r.BeginTurn(tenantID, userID, first.ID)
	if err != nil {
		t.Fatalf("begin turn on first: %v", err)
	}
	defer turnA.End()

	done := make(chan error, 1)
	go func() {
		turnB, err := r.BeginTurn(tenantID, userID, second.ID)
		if err == nil {
			turnB.End()
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("turn on second session: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("turn on a distinct session blocked behind another session's turn")
	}
}

func TestRegistryInvalidateForTenant(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	userA := uuid.New()
	userB := uuid.New()

	one, err := r.Create(tenantA, userA)
	if err != nil {
		t.Fatalf("create one: %v", err)
	}
	two, err := r.Create(tenantA, userA)
	if err != nil {
		t.Fatalf("create two: %v", err)
	}
	other, err := r.Create(tenantB, userB)
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	turn, err := r.BeginTurn(tenantA, userA, one.ID)
	if err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	if err := turn.AppendUser("disable race"); err != nil {
		t.Fatalf("append user: %v", err)
	}

	if n := r.InvalidateForTenant(tenantA); n != 2 {
		t.Fatalf("expected 2 sessions invalidated, got %d", n)
	}

	if turn.AppendAssistant("reply after disable") {
		t.Fatal("expected in-flight reply discarded after invalidation")
	}
	turn.End()

	if _, err := r.Get(tenantA, userA, one.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected first tenant-A session gone, got %v", err)
	}
	if _, err := r.Get(tenantA, userA, two.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected second tenant-A session gone, got %v", err)
	}
	if _, err := r.Get(tenantB, userB, other.ID); err != nil {
		t.Fatalf("expected tenant-B session untouched, got %v", err)
	}
}

func TestRegistryConversationCap(t *testing.T) {
	r, clock := newTestRegistry(t)
	r.maxMessages = 4
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 2; i++ {
		turn, err := r.BeginTurn(tenantID, userID, info.ID)
		if err != nil {
			t.Fatalf("begin turn %d: %v", i, err)
		}
		if err := turn.AppendUser("question"); err != nil {
			t.Fatalf("append user %d: %v", i, err)
		}
		if !turn.AppendAssistant("answer") {
			t.Fatalf("append assistant %d discarded", i)
		}
		turn.End()
		clock.Advance(time.Second)
	}

	if _, err := r.BeginTurn(tenantID, userID, info.ID); !errors.Is(err, domain.ErrConversationFull) {
		t.Fatalf("expected conversation-full on a capped session, got %v", err)
	}

	// The capped transcript is still readable.
	history, err := r.History(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}
}

func TestRegistryHistoryIsACopy(t *testing.T) {
	r, _ := newTestRegistry(t)
	tenantID := uuid.New()
	userID := uuid.New()

	info, err := r.Create(tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	turn, err := r.BeginTurn(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	if err := turn.AppendUser("original"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	turn.AppendAssistant("reply")
	turn.End()

	history, err := r.History(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	history[0].Text = "mutated"

	again, err := r.History(tenantID, userID, info.ID)
	if err != nil {
		t.Fatalf("history again: %v", err)
	}
	if again[0].Text != "original" {
		t.Fatalf("expected stored transcript unchanged, got %q", again[0].Text)
	}
}
