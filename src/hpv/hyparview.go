package hpv

import (
	"strconv"

	"github.com/mosaicnetworks/hyparview/src/common"
	"github.com/sirupsen/logrus"
)

// HyParView holds the membership state of a node and implements the protocol
// handlers. It has no internal synchronisation: the owner must feed it one
// message at a time, from a single goroutine.
type HyParView struct {
	self   Peer
	config Config

	activeView  *common.BoundedSet[Peer]
	passiveView *common.BoundedSet[Peer]

	// shuffleID is the id given to the next shuffle initiated or forwarded by
	// this node. pendingShuffle is the id of the last shuffle initiated here.
	shuffleID      uint32
	pendingShuffle uint32
	shuffling      bool
	offer          []Peer

	out chan<- Peer

	logger *logrus.Entry

	handled      map[MessageType]int
	sendFailures int
	discovered   int
}

// New creates a HyParView state machine for the node identified by self.
// Newly discovered peers are published on out, which may be nil.
func New(self Peer, conf Config, out chan<- Peer, logger *logrus.Entry) *HyParView {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &HyParView{
		self:        self,
		config:      conf,
		activeView:  common.NewBoundedSet[Peer](conf.MaxActiveViewSize),
		passiveView: common.NewBoundedSet[Peer](conf.MaxPassiveViewSize),
		out:         out,
		logger:      logger.WithField("self", self.Addr()),
		handled:     make(map[MessageType]int),
	}
}

// Self returns the Peer identifying this node.
func (h *HyParView) Self() Peer {
	return h.self
}

// Config returns the current configuration.
func (h *HyParView) Config() Config {
	return h.config
}

// Snapshot returns a copy of both views.
func (h *HyParView) Snapshot() Views {
	return newViews(h)
}

// SeedPassive inserts peers into the passive view, as long as there is room.
// It is used to provide recovery candidates before the node joins.
func (h *HyParView) SeedPassive(peers ...Peer) {
	for _, p := range peers {
		if p.IsZero() || p == h.self || h.activeView.Contains(p) {
			continue
		}
		h.passiveView.Insert(p)
	}
}

// Handle dispatches msg to the corresponding handler. Handlers never fail;
// delivery errors and protocol anomalies are logged.
func (h *HyParView) Handle(msg Message) {
	h.handled[msg.Type()]++

	switch m := msg.(type) {
	case Inspect:
		h.HandleInspect(m.ReplyTo)
	case InitiateJoin:
		h.HandleInitiateJoin(m.Contact)
	case Join:
		h.HandleJoin(m.Peer)
	case ForwardJoin:
		h.HandleForwardJoin(m.Joining, m.Forwarder, m.TTL)
	case Neighbour:
		h.HandleNeighbour(m.Peer, m.Prio)
	case NeighbourReply:
		h.HandleNeighbourReply(m.Peer, m.Accepted)
	case Shuffle:
		h.HandleShuffle(m.ID, m.Origin, m.Exchange, m.TTL)
	case ShuffleReply:
		h.HandleShuffleReply(m.ID, m.Exchange)
	case Disconnect:
		h.HandleDisconnect(m.Peer)
	case ShuffleTick:
		h.InitiateShuffle()
	case Reconfigure:
		h.SetConfig(m.Config)
	default:
		h.logger.WithField("type", msg.Type().String()).Error("Unknown message")
	}
}

// SetConfig replaces the configuration and applies the new view sizes. A
// smaller size does not evict any peer; it prevents further insertions until
// the view has shrunk below it.
func (h *HyParView) SetConfig(conf Config) {
	h.config = conf
	h.activeView.SetCapacity(conf.MaxActiveViewSize)
	h.passiveView.SetCapacity(conf.MaxPassiveViewSize)

	h.logger.WithFields(logrus.Fields{
		"active_size":  conf.MaxActiveViewSize,
		"passive_size": conf.MaxPassiveViewSize,
	}).Debug("Reconfigured")
}

// Stats returns counters describing the state of the node.
func (h *HyParView) Stats() map[string]string {
	s := map[string]string{
		"active_view":   strconv.Itoa(h.activeView.Len()),
		"passive_view":  strconv.Itoa(h.passiveView.Len()),
		"shuffle_id":    strconv.FormatUint(uint64(h.shuffleID), 10),
		"shuffling":     strconv.FormatBool(h.shuffling),
		"send_failures": strconv.Itoa(h.sendFailures),
		"discovered":    strconv.Itoa(h.discovered),
		"max_active":    strconv.Itoa(h.config.MaxActiveViewSize),
		"max_passive":   strconv.Itoa(h.config.MaxPassiveViewSize),
		"self":          h.self.Addr(),
	}
	for t, n := range h.handled {
		s["handled_"+t.String()] = strconv.Itoa(n)
	}
	return s
}

// send delivers msg to p. Failures are logged and otherwise ignored; the
// protocol repairs itself on the next disconnect or shuffle.
func (h *HyParView) send(p Peer, msg Message) {
	if err := p.Send(msg); err != nil {
		h.sendFailures++
		h.logger.WithError(err).WithFields(logrus.Fields{
			"peer": p.Addr(),
			"type": msg.Type().String(),
		}).Warn("Failed to send message")
	}
}

// publishPeers emits, once per call, every peer that belongs to neither view.
func (h *HyParView) publishPeers(peers ...Peer) {
	seen := make(map[Peer]struct{}, len(peers))

	for _, p := range peers {
		if p.IsZero() || p == h.self {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}

		if h.activeView.Contains(p) || h.passiveView.Contains(p) {
			continue
		}

		h.discovered++

		if h.out == nil {
			continue
		}

		select {
		case h.out <- p:
		default:
			h.logger.WithField("peer", p.Addr()).Warn("Discovery channel full, dropping peer")
		}
	}
}

// addActive inserts p in the active view, first making room by dropping a
// random active peer if the view is full.
func (h *HyParView) addActive(p Peer) {
	if p.IsZero() || p == h.self || h.activeView.Contains(p) {
		return
	}

	if h.activeView.IsFull() {
		h.dropRandomActive()
	}

	if h.activeView.Insert(p) {
		h.passiveView.Remove(p)
		h.logger.WithField("peer", p.Addr()).Debug("Added to active view")
	}
}

// dropRandomActive moves a random active peer to the passive view and notifies
// it with a Disconnect.
func (h *HyParView) dropRandomActive() {
	p, ok := h.activeView.SampleOne()
	if !ok {
		return
	}

	h.activeView.Remove(p)
	h.send(p, Disconnect{Peer: h.self})
	h.addPassive(p)

	h.logger.WithField("peer", p.Addr()).Debug("Dropped from active view")
}

// addPassive inserts p in the passive view, dropping a random passive peer if
// the view is full. Self and active peers are ignored.
func (h *HyParView) addPassive(p Peer) {
	if p.IsZero() || p == h.self || h.activeView.Contains(p) || h.passiveView.Contains(p) {
		return
	}

	if h.passiveView.IsFull() {
		if victim, ok := h.passiveView.SampleOne(); ok {
			h.passiveView.Remove(victim)
		}
	}

	h.passiveView.Insert(p)
}

// promotePassive moves a random passive peer to the active view and sends it
// a Neighbour request, prioritised if the active view is empty. The promotion
// happens before the reply; a rejection undoes it.
func (h *HyParView) promotePassive() {
	if h.activeView.IsFull() {
		return
	}

	candidate, ok := h.passiveView.SampleOne()
	if !ok {
		h.logger.Debug("No passive peer to promote")
		return
	}

	h.send(candidate, Neighbour{
		Peer: h.self,
		Prio: h.activeView.Len() == 0,
	})

	h.passiveView.Remove(candidate)
	h.activeView.Insert(candidate)

	h.logger.WithField("peer", candidate.Addr()).Debug("Promoted to active view")
}

// sampleExcluding returns up to max random members of s that are not in
// excluded.
func sampleExcluding(s *common.BoundedSet[Peer], max int, excluded ...Peer) []Peer {
	if max <= 0 {
		return []Peer{}
	}

	skip := make(map[Peer]struct{}, len(excluded))
	for _, p := range excluded {
		skip[p] = struct{}{}
	}

	res := make([]Peer, 0, max)
	for _, p := range s.Sample(s.Len()) {
		if len(res) == max {
			break
		}
		if _, ok := skip[p]; ok {
			continue
		}
		res = append(res, p)
	}
	return res
}
