package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_DoAndStateListener(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute, 1)
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	var transitions []string
	b.OnStateChange(func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})

	errIgnored := errors.New("not found")
	errTransient := errors.New("upstream 503")
	isFailure := func(err error) bool { return errors.Is(err, errTransient) }

	if err := b.Do(func() error { return errIgnored }, isFailure); !errors.Is(err, errIgnored) {
		t.Fatalf("expected ignored error to pass through, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after ignored error, got %s", state)
	}

	if err := b.Do(func() error { return errTransient }, isFailure); !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	called := false
	if err := b.Do(func() error { called = true; return nil }, isFailure); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run while the circuit is open")
	}

	now = now.Add(2 * time.Minute)
	if err := b.Do(func() error { return nil }, isFailure); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d: got=%s want=%s", i, transitions[i], want[i])
		}
	}
}
