package net

import (
	"sync"

	"github.com/mosaicnetworks/hyparview/src/hpv"
)

// sender is the part of a transport used by remote recipients.
type sender interface {
	send(target string, msg hpv.Message) error
}

// remote is the Recipient of a node reachable through a transport. There is
// exactly one remote per address and transport, so that Peers built from the
// same address compare equal.
type remote struct {
	addr  string
	trans sender
}

// Send implements the hpv.Recipient interface.
func (r *remote) Send(msg hpv.Message) error {
	return r.trans.send(r.addr, msg)
}

// String implements the hpv.Recipient interface.
func (r *remote) String() string {
	return r.addr
}

// peerCache maps addresses to Peers.
type peerCache struct {
	sync.Mutex
	trans sender
	peers map[string]hpv.Peer
}

func newPeerCache(trans sender) *peerCache {
	return &peerCache{
		trans: trans,
		peers: make(map[string]hpv.Peer),
	}
}

// get returns the Peer of addr, creating it if necessary. The empty address
// maps to the zero Peer.
func (c *peerCache) get(addr string) hpv.Peer {
	if addr == "" {
		return hpv.Peer{}
	}

	c.Lock()
	defer c.Unlock()

	p, ok := c.peers[addr]
	if !ok {
		p = hpv.NewPeer(&remote{addr: addr, trans: c.trans})
		c.peers[addr] = p
	}
	return p
}
