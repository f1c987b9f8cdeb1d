package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/moyam/chatbot/internal/domain"
)

func TestCreateAssignsUniqueIDs(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := m.Create(ctx)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if !strings.HasPrefix(id, "sess_") {
			t.Errorf("unexpected id format: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate session id: %s", id)
		}
		seen[id] = true
	}
}

func TestGetUnknownSession(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	_, err := m.Get(context.Background(), "sess_0_dead")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdateIsAtomicPerSession(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 50 goroutines each increment a counter variable 20 times. With the
	// read-modify-write contract, no increment may be lost.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				err := m.Update(ctx, id, func(s *domain.SessionState) error {
					n := s.Vars["count"].Num
					s.Vars["count"] = domain.NumberValue(n + 1)
					return nil
				})
				if err != nil {
					t.Errorf("Update failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	state, err := m.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := state.Vars["count"].Num; got != 1000 {
		t.Errorf("expected count 1000, got %v", got)
	}
}

func TestFailedUpdateDiscardsMutations(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	id, _ := m.Create(ctx)
	wantErr := errors.New("transition failed")

	err := m.Update(ctx, id, func(s *domain.SessionState) error {
		s.ScenarioID = 7
		s.StepID = 3
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	state, _ := m.Get(ctx, id)
	if state.ScenarioID != 0 || state.StepID != 0 {
		t.Errorf("failed update leaked partial mutation: %+v", state)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	a, _ := m.Create(ctx)
	b, _ := m.Create(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = m.Update(ctx, a, func(s *domain.SessionState) error {
				s.StepID = int64(i)
				s.Vars["owner"] = domain.StringValue("a")
				return nil
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = m.Update(ctx, b, func(s *domain.SessionState) error {
				s.StepID = int64(i)
				s.Vars["owner"] = domain.StringValue("b")
				return nil
			})
		}
	}()
	wg.Wait()

	stateA, _ := m.Get(ctx, a)
	stateB, _ := m.Get(ctx, b)
	if stateA.Vars["owner"].Str != "a" || stateB.Vars["owner"].Str != "b" {
		t.Errorf("sessions observed each other's variables: a=%v b=%v",
			stateA.Vars["owner"], stateB.Vars["owner"])
	}
}

func TestGetReturnsACopy(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	id, _ := m.Create(ctx)
	state, _ := m.Get(ctx, id)
	state.Vars["leak"] = domain.StringValue("x")

	fresh, _ := m.Get(ctx, id)
	if _, ok := fresh.Vars["leak"]; ok {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestEvictIdle(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	stale, _ := m.Create(ctx)
	fresh, _ := m.Create(ctx)

	// Backdate the stale session.
	e, err := m.entry(stale)
	if err != nil {
		t.Fatalf("entry lookup failed: %v", err)
	}
	e.mu.Lock()
	e.state.LastActive = time.Now().Add(-2 * time.Hour)
	e.mu.Unlock()

	evicted, err := m.EvictIdle(ctx, time.Hour)
	if err != nil {
		t.Fatalf("EvictIdle failed: %v", err)
	}
	if len(evicted) != 1 || evicted[0] != stale {
		t.Fatalf("expected [%s] evicted, got %v", stale, evicted)
	}

	if _, err := m.Get(ctx, stale); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("stale session still present: %v", err)
	}
	if _, err := m.Get(ctx, fresh); err != nil {
		t.Errorf("fresh session wrongly evicted: %v", err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	ctx := context.Background()

	id, _ := m.Create(ctx)
	if err := m.Remove(ctx, id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := m.Remove(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double remove, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty store, got %d sessions", m.Len())
	}
}
