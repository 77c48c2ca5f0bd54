package hpv

import (
	"errors"
	"fmt"
)

// ErrNoRecipient is returned when sending through a Peer that was never
// bound to a Recipient.
var ErrNoRecipient = errors.New("peer has no recipient")

// Recipient is a capability to deliver protocol messages to a remote node.
// Send must not block; it either hands the message over to the delivery layer
// or fails immediately.
//
// Implementations must be comparable and are usually pointers: two Peers are
// the same peer if and only if their Recipients are equal.
type Recipient interface {
	Send(msg Message) error
	String() string
}

// Peer is an opaque handle on a remote node. Peers are comparable and can be
// used as map keys.
type Peer struct {
	recipient Recipient
}

// NewPeer wraps a Recipient into a Peer.
func NewPeer(r Recipient) Peer {
	return Peer{recipient: r}
}

// Recipient returns the delivery capability behind the Peer.
func (p Peer) Recipient() Recipient {
	return p.recipient
}

// IsZero reports whether the Peer is the zero value.
func (p Peer) IsZero() bool {
	return p.recipient == nil
}

// Send delivers msg to the peer.
func (p Peer) Send(msg Message) error {
	if p.recipient == nil {
		return ErrNoRecipient
	}
	return p.recipient.Send(msg)
}

// Addr returns the string representation of the underlying Recipient, which is
// its network address for remote peers.
func (p Peer) Addr() string {
	if p.recipient == nil {
		return ""
	}
	return p.recipient.String()
}

func (p Peer) String() string {
	return fmt.Sprintf("Peer %s", p.Addr())
}

// Addrs returns the addresses of a list of peers.
func Addrs(peers []Peer) []string {
	res := make([]string, 0, len(peers))
	for _, p := range peers {
		res = append(res, p.Addr())
	}
	return res
}
