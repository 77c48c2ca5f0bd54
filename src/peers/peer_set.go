package peers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PeerSet is an ordered list of contacts without duplicate addresses.
type PeerSet struct {
	Peers     []*Peer          `json:"peers"`
	ByNetAddr map[string]*Peer `json:"-"`
}

// NewPeerSet creates a new PeerSet from a list of Peers. Peers with an empty
// address are skipped, and only the first occurrence of an address is kept.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		Peers:     make([]*Peer, 0, len(peers)),
		ByNetAddr: make(map[string]*Peer),
	}

	for _, peer := range peers {
		if peer == nil || peer.NetAddr == "" {
			continue
		}
		if _, ok := peerSet.ByNetAddr[peer.NetAddr]; ok {
			continue
		}
		peerSet.ByNetAddr[peer.NetAddr] = peer
		peerSet.Peers = append(peerSet.Peers, peer)
	}

	return peerSet
}

// NewPeerSetFromAddrs creates a PeerSet from a list of network addresses.
func NewPeerSetFromAddrs(addrs []string) *PeerSet {
	peers := make([]*Peer, 0, len(addrs))
	for _, a := range addrs {
		peers = append(peers, NewPeer(a, ""))
	}
	return NewPeerSet(peers)
}

// NewPeerSetFromPeerSliceBytes creates a new PeerSet from a JSON list of
// peers.
func NewPeerSetFromPeerSliceBytes(peerSliceBytes []byte) (*PeerSet, error) {
	peers := []*Peer{}

	dec := json.NewDecoder(bytes.NewReader(peerSliceBytes))
	if err := dec.Decode(&peers); err != nil {
		return nil, fmt.Errorf("decoding peers: %w", err)
	}

	return NewPeerSet(peers), nil
}

// WithRemovedPeer returns a new PeerSet with a list of peers excluding the
// provided address.
func (peerSet *PeerSet) WithRemovedPeer(netAddr string) *PeerSet {
	_, peers := ExcludePeer(peerSet.Peers, netAddr)
	return NewPeerSet(peers)
}

// Merge returns a new PeerSet with the peers of both sets, those of peerSet
// first.
func (peerSet *PeerSet) Merge(other *PeerSet) *PeerSet {
	if other == nil {
		return peerSet
	}
	peers := make([]*Peer, 0, peerSet.Len()+other.Len())
	peers = append(peers, peerSet.Peers...)
	peers = append(peers, other.Peers...)
	return NewPeerSet(peers)
}

// NetAddrs returns the addresses of the peers, in order.
func (peerSet *PeerSet) NetAddrs() []string {
	res := make([]string, 0, len(peerSet.Peers))
	for _, p := range peerSet.Peers {
		res = append(res, p.NetAddr)
	}
	return res
}

// Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.Peers)
}

// Marshal marshals the list of peers
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
