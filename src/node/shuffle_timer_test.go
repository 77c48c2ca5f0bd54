package node

import (
	"testing"
	"time"
)

type manualTimer struct {
	created chan time.Duration
	fire    chan time.Time
}

func newManualTimer() *manualTimer {
	return &manualTimer{
		created: make(chan time.Duration, 16),
		fire:    make(chan time.Time),
	}
}

func (m *manualTimer) factory(d time.Duration) <-chan time.Time {
	m.created <- d
	if d <= 0 {
		return nil
	}
	return m.fire
}

func (m *manualTimer) expectCreated(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case got := <-m.created:
		if got != d {
			t.Fatalf("timer created with %v, expected %v", got, d)
		}
	case <-time.After(time.Second):
		t.Fatalf("no timer created")
	}
}

func expectTick(t *testing.T, timer *ShuffleTimer) {
	t.Helper()
	select {
	case <-timer.Ticks():
	case <-time.After(time.Second):
		t.Fatalf("no tick")
	}
}

func expectNoTick(t *testing.T, timer *ShuffleTimer) {
	t.Helper()
	select {
	case <-timer.Ticks():
		t.Fatalf("unexpected tick")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestShuffleTimer(t *testing.T) {
	m := newManualTimer()
	timer := NewShuffleTimer(m.factory)
	go timer.Run(time.Second)
	defer timer.Shutdown()

	m.expectCreated(t, time.Second)

	m.fire <- time.Now()
	expectTick(t, timer)
	m.expectCreated(t, time.Second)

	timer.Reset(2 * time.Second)
	m.expectCreated(t, 2*time.Second)

	m.fire <- time.Now()
	expectTick(t, timer)
	m.expectCreated(t, 2*time.Second)
}

func TestShuffleTimerTicksAreCoalesced(t *testing.T) {
	m := newManualTimer()
	timer := NewShuffleTimer(m.factory)
	go timer.Run(time.Second)
	defer timer.Shutdown()

	m.fire <- time.Now()
	m.fire <- time.Now()
	m.fire <- time.Now()

	expectTick(t, timer)
	expectNoTick(t, timer)
}

func TestShuffleTimerStop(t *testing.T) {
	m := newManualTimer()
	timer := NewShuffleTimer(m.factory)
	go timer.Run(time.Second)
	defer timer.Shutdown()

	m.expectCreated(t, time.Second)

	timer.Stop()

	select {
	case m.fire <- time.Now():
		t.Fatalf("stopped timer should not be listening")
	case <-time.After(50 * time.Millisecond):
	}

	timer.Reset(time.Second)
	m.expectCreated(t, time.Second)
	m.fire <- time.Now()
	expectTick(t, timer)
}

func TestShuffleTimerDisabled(t *testing.T) {
	timer := NewRandomShuffleTimer()
	go timer.Run(0)

	expectNoTick(t, timer)

	timer.Shutdown()
	timer.Shutdown()

	// Reset and Stop return once the timer is shut down
	timer.Reset(time.Millisecond)
	timer.Stop()
}

func TestRandomShuffleTimerTicks(t *testing.T) {
	timer := NewRandomShuffleTimer()
	go timer.Run(10 * time.Millisecond)
	defer timer.Shutdown()

	expectTick(t, timer)
	expectTick(t, timer)
}

func TestStateTransitions(t *testing.T) {
	var s state

	if s.getState() != Idle {
		t.Fatalf("initial state should be Idle")
	}
	if !s.casState(Idle, Running) {
		t.Fatalf("Idle -> Running should succeed")
	}
	if s.casState(Idle, Running) {
		t.Fatalf("Idle -> Running should fail when Running")
	}
	if prev := s.swapState(Shutdown); prev != Running {
		t.Fatalf("previous state should be Running, not %v", prev)
	}
	if s.getState().String() != "Shutdown" {
		t.Fatalf("state should be Shutdown")
	}
}
