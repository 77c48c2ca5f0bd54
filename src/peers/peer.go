package peers

import (
	"fmt"
	"strings"
)

// Peer is a bootstrap contact: a node that a process can join the overlay
// through, or fall back to when its views run dry.
type Peer struct {
	NetAddr string
	Moniker string `json:",omitempty"`
}

// NewPeer creates a new Peer
func NewPeer(netAddr, moniker string) *Peer {
	return &Peer{
		NetAddr: strings.TrimSpace(netAddr),
		Moniker: moniker,
	}
}

func (p *Peer) String() string {
	if p.Moniker == "" {
		return p.NetAddr
	}
	return fmt.Sprintf("%s(%s)", p.Moniker, p.NetAddr)
}

// ExcludePeer is used to exclude a single peer from a list of peers. It returns
// the index of the excluded peer, or -1.
func ExcludePeer(peers []*Peer, peer string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.NetAddr != peer {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
