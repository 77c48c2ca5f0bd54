package peers

import "sync"

// StaticPeers is used to provide a static list of peers, for instance the
// contacts given on the command line.
type StaticPeers struct {
	StaticPeers []*Peer
	l           sync.Mutex
}

// NewStaticPeers creates a StaticPeers from a list of addresses.
func NewStaticPeers(addrs ...string) *StaticPeers {
	return &StaticPeers{
		StaticPeers: NewPeerSetFromAddrs(addrs).Peers,
	}
}

// PeerSet implements the PeerStore interface.
func (s *StaticPeers) PeerSet() (*PeerSet, error) {
	s.l.Lock()
	defer s.l.Unlock()
	return NewPeerSet(s.StaticPeers), nil
}

// Write implements the PeerStore interface.
func (s *StaticPeers) Write(p []*Peer) error {
	s.l.Lock()
	s.StaticPeers = p
	s.l.Unlock()
	return nil
}
