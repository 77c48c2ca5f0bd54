// Package net implements different transports to carry HyParView messages
// between nodes.
//
// This package contains two implementations of the Transport interface, which
// is used by nodes to send and receive protocol messages (Join, ForwardJoin,
// Shuffle, etc.):
//
// - Inmem: in-memory transport used only for testing
//
// - TCP: communicating over plain TCP
//
// Every transport hands out hpv.Peer values for the addresses it knows about.
// A Peer obtained from a transport sends through that transport, and the same
// address always yields the same Peer, so peers can be stored in sets and
// compared.
//
// Wire format
//
// Messages are one-way. On the wire, a message is a 4-byte big-endian length
// followed by a byte indicating the message type and the msgpack encoding of
// a WireMessage, in which peers are replaced by their advertise address.
// Messages that only make sense inside a node (Inspect, InitiateJoin,
// ShuffleTick, Reconfigure) are refused with ErrNotWireMessage.
//
// TCP
//
// The TCP transport is suitable when nodes are in the same local network, or
// when users are able to configure their connections appropriately to avoid NAT
// issues. It is configured with:
//
// - BindAddr: the IP:PORT of the TCP socket that the node binds to.
//
// - AdvertiseAddr: (optional) The address that is advertised to other nodes. If
// BindAddr is a local address not reachable by other peers, it is useful to
// set AdvertiseAddr to the reachable public address.
//
// Sending never blocks the caller. Outgoing messages are queued and written by
// a pool of workers; a message that cannot be delivered is logged and lost,
// which the protocol tolerates.
package net
