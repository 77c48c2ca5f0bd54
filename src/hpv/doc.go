// Package hpv implements the HyParView membership protocol.
//
// HyParView (Hybrid Partial View) maintains, on every node, two partial views
// of the overlay:
//
//	- the active view is small. It contains the peers a node
//	  disseminates to, and a peer is removed from it as soon as it is
//	  suspected to have failed.
//	- the passive view is larger. It contains recovery candidates, and is
//	  refreshed periodically by shuffling samples with random peers.
//
// Join
//
// A node enters the overlay by sending a Join to a contact. The contact adds
// the joiner to its active view and sends a ForwardJoin to every other active
// peer. A ForwardJoin travels along a random walk of at most ActiveRWL hops;
// the node where the walk ends adds the joiner to its active view, and the
// node reached when the TTL equals PassiveRWL adds it to its passive view.
//
// Repair
//
// When a peer disconnects, the node promotes a random passive peer by sending
// it a Neighbour request. The request has high priority when the active view
// is empty; such requests are always accepted, possibly by dropping a random
// active peer. Low priority requests are accepted only if there is room.
//
// Shuffle
//
// Periodically, a node sends a Shuffle carrying a sample of both its views to
// a random active peer. The message is forwarded until its TTL expires; the
// last node answers with a ShuffleReply carrying a sample of its passive view,
// and both nodes merge what they received into their passive views, preferring
// to evict the entries they sent.
//
// The HyParView type holds the views and handles the messages. It performs no
// locking and no I/O besides sending messages through Peers; the node package
// runs it in a single goroutine.
package hpv
