// Package node runs a HyParView membership protocol instance.
//
// A Node owns an hpv.HyParView state machine and drives it from a single
// goroutine. Three sources feed the run loop:
//
//	- the messages received by the transport from other nodes
//	- the messages submitted locally (Join, Views, Reconfigure)
//	- the ticks of the ShuffleTimer
//
// Because only the run loop touches the views, the state machine needs no
// locking. Other goroutines read the views through Views, which submits an
// Inspect message and waits for the snapshot, and the counters through
// GetStats, which returns a copy refreshed after every message.
//
// Peers learnt from Join and Shuffle messages are published on the channel
// returned by Discovered. Publishing never blocks the run loop; discoveries
// are dropped when nobody consumes them.
//
// Leave notifies the active peers with Disconnect messages before shutting the
// node down, so that they can promote a replacement from their passive views
// right away.
package node
