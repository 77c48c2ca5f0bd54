package net

import (
	"github.com/mosaicnetworks/hyparview/src/hpv"
)

// Transport provides an interface for network transports to allow a node to
// exchange protocol messages with other nodes.
type Transport interface {

	// Starts the transport listening
	Listen()

	// Consumer returns a channel on which incoming protocol messages are
	// delivered.
	Consumer() <-chan hpv.Message

	// LocalAddr is used to return our local address
	LocalAddr() string

	// AdvertiseAddr is used to return our advertise address where other peers
	// can reach us
	AdvertiseAddr() string

	// Peer returns the Peer of the node reachable at addr. Calling it twice
	// with the same address returns equal Peers.
	Peer(addr string) hpv.Peer

	// Self returns the Peer that other nodes use to reach us.
	Self() hpv.Peer

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
