package node

import (
	"sync/atomic"
)

// State captures the state of a node: Idle, Running, or Shutdown
type State uint32

const (
	//Idle is the state of a node that was created but not started.
	Idle State = iota
	//Running is processing messages
	Running
	//Shutdown is shutdown
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

// swapState sets the state to s and returns the previous one.
func (b *state) swapState(s State) State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.SwapUint32(stateAddr, uint32(s)))
}

// casState moves from old to new and reports whether it did.
func (b *state) casState(old, new State) bool {
	stateAddr := (*uint32)(&b.state)
	return atomic.CompareAndSwapUint32(stateAddr, uint32(old), uint32(new))
}
