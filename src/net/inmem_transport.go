package net

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/mosaicnetworks/hyparview/src/hpv"
)

// NewInmemAddr returns a new in-memory addr with
// a randomly generate UUID as the ID.
func NewInmemAddr() string {
	return generateUUID()
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}

// InmemTransport Implements the Transport interface, to allow nodes to be
// tested in-memory without going over a network. Messages still go through
// the wire encoding, so that every transport resolves peers in its own
// address space.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan hpv.Message
	localAddr  string
	routes     map[string]*InmemTransport
	peers      *peerCache
	closed     bool
}

// NewInmemTransport is used to initialize a new transport
// and generates a random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan hpv.Message, consumerSize),
		localAddr:  addr,
		routes:     make(map[string]*InmemTransport),
	}
	trans.peers = newPeerCache(trans)
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan hpv.Message {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// AdvertiseAddr implements the Transport interface.
func (i *InmemTransport) AdvertiseAddr() string {
	return i.localAddr
}

// Peer implements the Transport interface.
func (i *InmemTransport) Peer(addr string) hpv.Peer {
	return i.peers.get(addr)
}

// Self implements the Transport interface.
func (i *InmemTransport) Self() hpv.Peer {
	return i.peers.get(i.localAddr)
}

func (i *InmemTransport) send(target string, msg hpv.Message) error {
	frame, err := Encode(i.localAddr, msg)
	if err != nil {
		return err
	}

	i.RLock()
	if i.closed {
		i.RUnlock()
		return ErrTransportShutdown
	}
	peer, ok := i.routes[target]
	i.RUnlock()

	if !ok {
		return fmt.Errorf("failed to connect to peer: %v", target)
	}

	return peer.deliver(frame)
}

// deliver decodes an incoming frame and hands it to the consumer without
// blocking.
func (i *InmemTransport) deliver(frame []byte) error {
	msg, _, err := Decode(frame, i.peers.get)
	if err != nil {
		return err
	}

	i.RLock()
	defer i.RUnlock()

	if i.closed {
		return fmt.Errorf("peer %s: %w", i.localAddr, ErrTransportShutdown)
	}

	select {
	case i.consumerCh <- msg:
		return nil
	default:
		return fmt.Errorf("peer %s: %w", i.localAddr, ErrQueueFull)
	}
}

// Connect is used to connect this transport to another transport for
// a given peer name. This allows for local routing.
func (i *InmemTransport) Connect(peer string, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.routes[peer] = trans
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.routes, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.routes = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.DisconnectAll()
	i.Lock()
	i.closed = true
	i.Unlock()
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}
