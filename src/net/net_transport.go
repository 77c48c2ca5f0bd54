package net

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/sirupsen/logrus"
)

const (
	bufSize = 4096

	// DefaultQueueSize is the number of outgoing messages a NetworkTransport
	// buffers before Send starts failing.
	DefaultQueueSize = 256

	consumerSize = 64
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrQueueFull is returned when a message cannot be queued for delivery.
	ErrQueueFull = errors.New("outgoing queue full")
)

/*
NetworkTransport provides a network based transport that can be used to
communicate with HyParView nodes on remote machines. It requires an underlying
stream layer to provide a stream abstraction, which can be simple TCP, TLS,
etc.

Messages are one-way. Each message is framed by its length, followed by a byte
that indicates the message type and the msgpack encoded body. Sending never
blocks: messages are queued and written by a set of workers over pooled
connections.
*/
type NetworkTransport struct {
	logger *logrus.Entry

	connPool     map[string][]*netConn
	connPoolLock sync.Mutex
	maxPool      int

	consumeCh chan hpv.Message
	outCh     chan outbound

	peers *peerCache

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex
	workers      sync.WaitGroup

	stream StreamLayer

	timeout time.Duration
}

type outbound struct {
	target string
	frame  []byte
}

type netConn struct {
	target string
	conn   net.Conn
	w      *bufio.Writer
}

// Release closes the underlying connection
func (n *netConn) Release() error {
	return n.conn.Close()
}

// NewNetworkTransport creates a new network transport with the given stream
// layer. The maxPool controls how many connections we will pool (per target),
// and how many workers write outgoing messages. The timeout is used to apply
// I/O deadlines.
func NewNetworkTransport(
	stream StreamLayer,
	maxPool int,
	timeout time.Duration,
	logger *logrus.Entry,
) *NetworkTransport {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	if maxPool < 1 {
		maxPool = 1
	}

	trans := &NetworkTransport{
		connPool:   make(map[string][]*netConn),
		consumeCh:  make(chan hpv.Message, consumerSize),
		outCh:      make(chan outbound, DefaultQueueSize),
		logger:     logger,
		maxPool:    maxPool,
		shutdownCh: make(chan struct{}),
		stream:     stream,
		timeout:    timeout,
	}

	trans.peers = newPeerCache(trans)

	for i := 0; i < maxPool; i++ {
		trans.workers.Add(1)
		go trans.sendLoop()
	}

	return trans
}

// Close is used to stop the network transport.
func (n *NetworkTransport) Close() error {
	n.shutdownLock.Lock()

	if n.shutdown {
		n.shutdownLock.Unlock()
		return nil
	}

	close(n.shutdownCh)
	err := n.stream.Close()
	n.shutdown = true
	n.shutdownLock.Unlock()

	n.workers.Wait()

	n.connPoolLock.Lock()
	for _, conns := range n.connPool {
		for _, c := range conns {
			c.Release()
		}
	}
	n.connPool = make(map[string][]*netConn)
	n.connPoolLock.Unlock()

	return err
}

// Consumer implements the Transport interface.
func (n *NetworkTransport) Consumer() <-chan hpv.Message {
	return n.consumeCh
}

// LocalAddr implements the Transport interface.
func (n *NetworkTransport) LocalAddr() string {
	addr := n.stream.Addr()

	if addr != nil {
		return addr.String()
	}

	return ""
}

// AdvertiseAddr implements the Transport interface.
func (n *NetworkTransport) AdvertiseAddr() string {
	return n.stream.AdvertiseAddr()
}

// Peer implements the Transport interface.
func (n *NetworkTransport) Peer(addr string) hpv.Peer {
	return n.peers.get(addr)
}

// Self implements the Transport interface.
func (n *NetworkTransport) Self() hpv.Peer {
	return n.peers.get(n.AdvertiseAddr())
}

// IsShutdown is used to check if the transport is shutdown.
func (n *NetworkTransport) IsShutdown() bool {
	select {
	case <-n.shutdownCh:
		return true
	default:
		return false
	}
}

// send encodes msg and queues it for delivery to target.
func (n *NetworkTransport) send(target string, msg hpv.Message) error {
	if n.IsShutdown() {
		return ErrTransportShutdown
	}

	frame, err := Encode(n.AdvertiseAddr(), msg)
	if err != nil {
		return err
	}

	select {
	case n.outCh <- outbound{target: target, frame: frame}:
		return nil
	default:
		return ErrQueueFull
	}
}

// sendLoop writes queued messages until the transport shuts down.
func (n *NetworkTransport) sendLoop() {
	defer n.workers.Done()

	for {
		select {
		case o := <-n.outCh:
			if err := n.deliver(o); err != nil {
				n.logger.WithError(err).WithField("target", o.target).Debug("Failed to deliver message")
			}
		case <-n.shutdownCh:
			n.drain()
			return
		}
	}
}

// drain makes a last attempt at delivering the messages that were queued
// before the transport shut down, so that Disconnects sent while leaving are
// not lost.
func (n *NetworkTransport) drain() {
	for {
		select {
		case o := <-n.outCh:
			if err := n.deliver(o); err != nil {
				n.logger.WithError(err).WithField("target", o.target).Debug("Failed to deliver message")
			}
		default:
			return
		}
	}
}

// deliver writes a single frame to its target.
func (n *NetworkTransport) deliver(o outbound) error {
	conn, err := n.getConn(o.target, n.timeout)
	if err != nil {
		return err
	}

	if n.timeout > 0 {
		conn.conn.SetWriteDeadline(time.Now().Add(n.timeout))
	}

	if err := writeFrame(conn.w, o.frame); err != nil {
		conn.Release()
		return err
	}

	if err := conn.w.Flush(); err != nil {
		conn.Release()
		return err
	}

	n.returnConn(conn)
	return nil
}

// getPooledConn is used to grab a pooled connection.
func (n *NetworkTransport) getPooledConn(target string) *netConn {
	n.connPoolLock.Lock()
	defer n.connPoolLock.Unlock()

	conns, ok := n.connPool[target]
	if !ok || len(conns) == 0 {
		return nil
	}

	var conn *netConn
	num := len(conns)
	conn, conns[num-1] = conns[num-1], nil
	n.connPool[target] = conns[:num-1]
	return conn
}

// getConn is used to get a connection from the pool.
func (n *NetworkTransport) getConn(target string, timeout time.Duration) (*netConn, error) {
	// Check for a pooled conn
	if conn := n.getPooledConn(target); conn != nil {
		return conn, nil
	}

	// Dial a new connection
	conn, err := n.stream.Dial(target, timeout)
	if err != nil {
		return nil, err
	}

	return &netConn{
		target: target,
		conn:   conn,
		w:      bufio.NewWriterSize(conn, bufSize),
	}, nil
}

// returnConn returns a connection back to the pool.
func (n *NetworkTransport) returnConn(conn *netConn) {
	n.connPoolLock.Lock()
	defer n.connPoolLock.Unlock()

	key := conn.target
	conns := n.connPool[key]

	if !n.IsShutdown() && len(conns) < n.maxPool {
		n.connPool[key] = append(conns, conn)
	} else {
		conn.Release()
	}
}

// Listen opens the stream and handles incoming connections.
func (n *NetworkTransport) Listen() {
	for {
		// Accept incoming connections
		conn, err := n.stream.Accept()
		if err != nil {
			if n.IsShutdown() {
				return
			}
			n.logger.WithError(err).Error("Failed to accept connection")
			continue
		}
		n.logger.WithFields(logrus.Fields{
			"node": conn.LocalAddr(),
			"from": conn.RemoteAddr(),
		}).Debug("accepted connection")

		// Handle the connection in dedicated routine
		go n.handleConn(conn)
	}
}

// handleConn is used to handle an inbound connection for its lifespan.
func (n *NetworkTransport) handleConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReaderSize(conn, bufSize)

	for {
		if err := n.handleFrame(r); err != nil {
			switch {
			case err == ErrTransportShutdown:
				n.logger.WithError(err).Debug("Dropping connection")
			case err == io.EOF, errors.Is(err, net.ErrClosed):
			default:
				n.logger.WithError(err).Error("Failed to decode incoming message")
			}
			return
		}
	}
}

// handleFrame is used to decode and dispatch a single message.
func (n *NetworkTransport) handleFrame(r *bufio.Reader) error {
	frame, err := readFrame(r)
	if err != nil {
		return err
	}

	msg, from, err := Decode(frame, n.peers.get)
	if err != nil {
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"from": from,
		"type": msg.Type().String(),
	}).Debug("received message")

	select {
	case n.consumeCh <- msg:
	case <-n.shutdownCh:
		return ErrTransportShutdown
	}

	return nil
}
