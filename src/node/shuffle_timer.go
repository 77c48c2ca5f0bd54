package node

import (
	"math/rand"
	"sync"
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// ShuffleTimer ticks periodically to make the node initiate a shuffle. The
// period can be changed while the timer runs; a zero period disables it.
type ShuffleTimer struct {
	timerFactory timerFactory
	tickCh       chan struct{}      //sends a signal to listening process
	resetCh      chan time.Duration //receives instruction to change the period
	stopCh       chan struct{}      //receives instruction to stop the timer
	shutdownCh   chan struct{}      //receives instruction to exit Run loop
	shutdownOnce sync.Once
}

// NewShuffleTimer creates a ShuffleTimer using timerFactory to create the
// underlying timers.
func NewShuffleTimer(timerFactory timerFactory) *ShuffleTimer {
	return &ShuffleTimer{
		timerFactory: timerFactory,
		tickCh:       make(chan struct{}, 1),
		resetCh:      make(chan time.Duration),
		stopCh:       make(chan struct{}),
		shutdownCh:   make(chan struct{}),
	}
}

// NewRandomShuffleTimer returns a ShuffleTimer whose ticks are spread out by
// up to a tenth of the period, so that nodes started together do not shuffle
// in lockstep.
func NewRandomShuffleTimer() *ShuffleTimer {

	randomTimeout := func(min time.Duration) <-chan time.Time {
		if min <= 0 {
			return nil
		}
		extra := time.Duration(0)
		if spread := int64(min / 10); spread > 0 {
			extra = time.Duration(rand.Int63n(spread))
		}
		return time.After(min + extra)
	}
	return NewShuffleTimer(randomTimeout)
}

// Run ticks every period until Shutdown is called.
func (c *ShuffleTimer) Run(period time.Duration) {
	timer := c.timerFactory(period)
	for {
		select {
		case <-timer:
			// a tick that was not consumed yet absorbs this one
			select {
			case c.tickCh <- struct{}{}:
			default:
			}
			timer = c.timerFactory(period)
		case p := <-c.resetCh:
			period = p
			timer = c.timerFactory(p)
		case <-c.stopCh:
			timer = nil
		case <-c.shutdownCh:
			return
		}
	}
}

// Ticks returns the channel on which ticks are delivered.
func (c *ShuffleTimer) Ticks() <-chan struct{} {
	return c.tickCh
}

// Reset restarts the timer with a new period.
func (c *ShuffleTimer) Reset(period time.Duration) {
	select {
	case c.resetCh <- period:
	case <-c.shutdownCh:
	}
}

// Stop pauses the timer until the next Reset.
func (c *ShuffleTimer) Stop() {
	select {
	case c.stopCh <- struct{}{}:
	case <-c.shutdownCh:
	}
}

// Shutdown stops the Run loop. It is safe to call it more than once.
func (c *ShuffleTimer) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.shutdownCh)
	})
}
