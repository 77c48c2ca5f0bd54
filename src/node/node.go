package node

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/mosaicnetworks/hyparview/src/net"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNodeShutdown is returned when submitting to a node that was shut
	// down.
	ErrNodeShutdown = errors.New("node is shut down")

	// ErrMailboxFull is returned when the mailbox cannot take more messages.
	ErrMailboxFull = errors.New("mailbox full")
)

// Node runs a HyParView state machine. A single goroutine owns the state and
// processes, one at a time, the messages received from the transport, the
// messages submitted locally, and the ticks of the shuffle timer.
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	hpv *hpv.HyParView

	trans net.Transport
	netCh <-chan hpv.Message

	mailbox     chan hpv.Message
	discoveryCh chan hpv.Peer

	shuffleTimer *ShuffleTimer

	shutdownCh chan struct{}
	loop       sync.WaitGroup

	statsLock sync.RWMutex
	stats     map[string]string

	start time.Time
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *Config, trans net.Transport) *Node {
	logger := conf.Logger
	if logger == nil {
		logger = logrus.New()
		logger.Level = logrus.DebugLevel
	}

	entry := logger.WithField("node", trans.AdvertiseAddr())

	discoveryCh := make(chan hpv.Peer, conf.DiscoverySize)

	node := Node{
		conf:         conf,
		logger:       entry,
		hpv:          hpv.New(trans.Self(), conf.HPV, discoveryCh, entry.WithField("prefix", "hpv")),
		trans:        trans,
		netCh:        trans.Consumer(),
		mailbox:      make(chan hpv.Message, conf.MailboxSize),
		discoveryCh:  discoveryCh,
		shuffleTimer: NewRandomShuffleTimer(),
		shutdownCh:   make(chan struct{}),
		stats:        make(map[string]string),
	}

	return &node
}

// Init checks the configuration and seeds the passive view with the given
// contact addresses, which serve as recovery candidates. It must be called
// before Run.
func (n *Node) Init(contacts ...string) error {
	if err := n.conf.HPV.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	self := n.trans.AdvertiseAddr()
	for _, c := range contacts {
		if c == "" || c == self {
			continue
		}
		n.hpv.SeedPassive(n.trans.Peer(c))
	}

	n.updateStats()

	return nil
}

// RunAsync calls Run in a separate goroutine.
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")

	n.loop.Add(1)
	go n.run()
}

// Run processes messages until the node is shut down.
func (n *Node) Run() {
	n.loop.Add(1)
	n.run()
}

func (n *Node) run() {
	defer n.loop.Done()

	if !n.casState(Idle, Running) {
		return
	}

	n.statsLock.Lock()
	n.start = time.Now()
	n.statsLock.Unlock()

	go n.shuffleTimer.Run(n.conf.HPV.ShuffleInterval)

	for {
		select {
		case msg := <-n.netCh:
			n.process(msg)
		case msg := <-n.mailbox:
			n.process(msg)
		case <-n.shuffleTimer.Ticks():
			n.logger.Debug("Time to shuffle")
			n.process(hpv.ShuffleTick{})
			n.logStats()
		case <-n.shutdownCh:
			return
		}
	}
}

// process feeds one message to the state machine.
func (n *Node) process(msg hpv.Message) {
	n.hpv.Handle(msg)

	if r, ok := msg.(hpv.Reconfigure); ok {
		if r.Config.ShuffleInterval > 0 {
			n.shuffleTimer.Reset(r.Config.ShuffleInterval)
		} else {
			n.shuffleTimer.Stop()
		}
	}

	n.updateStats()
}

// Submit queues a message for the run loop. It does not block.
func (n *Node) Submit(msg hpv.Message) error {
	if n.getState() == Shutdown {
		return ErrNodeShutdown
	}

	select {
	case n.mailbox <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Join makes the node join the overlay through the node at contact.
func (n *Node) Join(contact string) error {
	if contact == n.trans.AdvertiseAddr() {
		return fmt.Errorf("cannot join through self (%s)", contact)
	}

	n.logger.WithField("contact", contact).Debug("JOINING")

	return n.Submit(hpv.InitiateJoin{Contact: n.trans.Peer(contact)})
}

// Views returns a snapshot of the active and passive views.
func (n *Node) Views(ctx context.Context) (hpv.Views, error) {
	replyCh := make(chan hpv.Views, 1)

	if err := n.Submit(hpv.Inspect{ReplyTo: replyCh}); err != nil {
		return hpv.Views{}, err
	}

	select {
	case v := <-replyCh:
		return v, nil
	case <-ctx.Done():
		return hpv.Views{}, ctx.Err()
	case <-n.shutdownCh:
		return hpv.Views{}, ErrNodeShutdown
	}
}

// Reconfigure replaces the protocol parameters of the running node.
func (n *Node) Reconfigure(conf hpv.Config) error {
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return n.Submit(hpv.Reconfigure{Config: conf})
}

// Discovered returns the channel on which the node publishes the peers it
// learns about.
func (n *Node) Discovered() <-chan hpv.Peer {
	return n.discoveryCh
}

// Self returns the Peer other nodes use to reach this node.
func (n *Node) Self() hpv.Peer {
	return n.trans.Self()
}

// GetState returns the state of the node.
func (n *Node) GetState() State {
	return n.getState()
}

// Leave notifies the active peers that the node is going away, then shuts it
// down.
func (n *Node) Leave() {
	n.logger.Debug("LEAVING")

	if n.stop() {
		n.hpv.Leave()
		n.closeTransport()
	}
}

// Shutdown shuts down the node
func (n *Node) Shutdown() {
	if n.stop() {
		n.closeTransport()
	}
}

// stop ends the run loop and reports whether this call did it. Once it
// returns, the state machine is no longer used by the loop.
func (n *Node) stop() bool {
	if n.swapState(Shutdown) == Shutdown {
		return false
	}

	n.logger.Debug("Shutdown")

	close(n.shutdownCh)
	n.shuffleTimer.Shutdown()
	n.loop.Wait()

	n.updateStats()

	return true
}

func (n *Node) closeTransport() {
	if err := n.trans.Close(); err != nil {
		n.logger.WithError(err).Error("Closing transport")
	}
}

// updateStats copies the statistics of the state machine so that they can be
// read from other goroutines.
func (n *Node) updateStats() {
	stats := n.hpv.Stats()

	n.statsLock.Lock()
	n.stats = stats
	n.statsLock.Unlock()
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	n.statsLock.RLock()
	defer n.statsLock.RUnlock()

	s := make(map[string]string, len(n.stats)+3)
	for k, v := range n.stats {
		s[k] = v
	}

	s["state"] = n.getState().String()
	s["mailbox"] = strconv.Itoa(len(n.mailbox))
	if !n.start.IsZero() {
		s["uptime"] = time.Since(n.start).Round(time.Second).String()
	}

	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"active_view":   stats["active_view"],
		"passive_view":  stats["passive_view"],
		"shuffle_id":    stats["shuffle_id"],
		"send_failures": stats["send_failures"],
		"state":         stats["state"],
	}).Debug("Stats")
}
