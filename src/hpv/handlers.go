package hpv

import (
	"github.com/sirupsen/logrus"
)

// HandleInspect sends a snapshot of the views on replyTo. The send does not
// block; the caller is expected to provide a buffered channel.
func (h *HyParView) HandleInspect(replyTo chan<- Views) {
	if replyTo == nil {
		return
	}

	select {
	case replyTo <- newViews(h):
	default:
		h.logger.Warn("Inspect reply channel not ready, dropping snapshot")
	}
}

// HandleInitiateJoin sends a Join request to contact.
func (h *HyParView) HandleInitiateJoin(contact Peer) {
	h.logger.WithField("contact", contact.Addr()).Debug("Joining")

	h.send(contact, Join{Peer: h.self})
}

// HandleJoin adds p to the active view and starts a random walk towards every
// other active peer so that p gets more neighbours.
func (h *HyParView) HandleJoin(p Peer) {
	if p.IsZero() {
		h.logger.Warn("Ignoring join without a peer")
		return
	}

	h.publishPeers(p)

	h.addActive(p)

	for _, a := range h.activeView.Elements() {
		if a == p {
			continue
		}
		h.send(a, ForwardJoin{
			Joining:   p,
			Forwarder: h.self,
			TTL:       h.config.ActiveRWL,
		})
	}
}

// HandleForwardJoin continues the random walk of a join, or ends it by
// including the joining peer in the active view.
func (h *HyParView) HandleForwardJoin(joining, forwarder Peer, ttl int) {
	if joining.IsZero() {
		h.logger.Warn("Ignoring forward join without a joining peer")
		return
	}

	h.publishPeers(joining)

	if ttl <= 0 || h.activeView.Len() == 0 {
		h.addActive(joining)
		return
	}

	if ttl == h.config.PassiveRWL {
		h.addPassive(joining)
	}

	h.activeView.Remove(forwarder)

	if next, ok := h.activeView.SampleOne(); ok {
		h.send(next, ForwardJoin{
			Joining:   joining,
			Forwarder: h.self,
			TTL:       ttl - 1,
		})
	} else {
		h.addActive(joining)
	}

	if forwarder.IsZero() || forwarder == h.self || h.activeView.Contains(forwarder) {
		return
	}

	if h.activeView.Insert(forwarder) {
		h.passiveView.Remove(forwarder)
		return
	}

	// the joining peer took the last slot
	h.send(forwarder, Disconnect{Peer: h.self})
	h.addPassive(forwarder)
}

// HandleNeighbour answers a request from p to become an active neighbour. A
// prioritised request makes room if needed; otherwise the request is rejected
// when the active view is full.
func (h *HyParView) HandleNeighbour(p Peer, prio bool) {
	if p.IsZero() || p == h.self {
		h.logger.Warn("Ignoring neighbour request without a valid peer")
		return
	}

	h.publishPeers(p)

	if prio && h.activeView.IsFull() {
		h.dropRandomActive()
	}

	if h.activeView.IsFull() {
		h.logger.WithField("peer", p.Addr()).Debug("Rejecting neighbour request")
		h.send(p, NeighbourReply{Peer: h.self, Accepted: false})
		return
	}

	h.send(p, NeighbourReply{Peer: h.self, Accepted: true})
	h.activeView.Insert(p)
	h.passiveView.Remove(p)
}

// HandleNeighbourReply undoes the optimistic promotion of p when it rejected
// our request, and tries another passive peer instead.
func (h *HyParView) HandleNeighbourReply(p Peer, accepted bool) {
	h.publishPeers(p)

	if accepted {
		return
	}

	h.logger.WithField("peer", p.Addr()).Debug("Neighbour request rejected")

	h.HandleDisconnect(p)
	h.addPassive(p)
}

// HandleDisconnect removes p from the active view and replaces it with a
// random passive peer.
func (h *HyParView) HandleDisconnect(p Peer) {
	h.activeView.Remove(p)
	h.promotePassive()
}

// HandleShuffle either answers the shuffle, merging the received peers into the
// passive view, or forwards it to a random active peer.
func (h *HyParView) HandleShuffle(id uint32, origin Peer, exchange []Peer, ttl int) {
	h.publishPeers(exchange...)

	if ttl > 1 && h.activeView.Len() > 1 {
		next := sampleExcluding(h.activeView, 1, origin)
		if len(next) == 0 {
			h.logger.WithField("origin", origin.Addr()).Debug("No peer to forward shuffle to")
			return
		}

		fid := h.shuffleID
		h.shuffleID++

		h.send(next[0], Shuffle{
			ID:       fid,
			Origin:   origin,
			Exchange: exchange,
			TTL:      ttl - 1,
		})
		return
	}

	excluded := append([]Peer{origin}, exchange...)
	sample := sampleExcluding(h.passiveView, len(exchange)+1, excluded...)

	h.send(origin, ShuffleReply{ID: id, Exchange: sample})

	merge := h.filterKnown(exchange)
	if origin != h.self && !origin.IsZero() && !h.activeView.Contains(origin) {
		merge = append(merge, origin)
	}

	h.passiveView.BoundedUnion(merge, sample)
}

// HandleShuffleReply merges the peers received in answer to the outstanding
// shuffle into the passive view, evicting the peers we offered first.
func (h *HyParView) HandleShuffleReply(id uint32, exchange []Peer) {
	h.publishPeers(exchange...)

	fields := logrus.Fields{
		"id":      id,
		"pending": h.pendingShuffle,
	}

	switch {
	case id > h.pendingShuffle:
		h.logger.WithFields(fields).Warn("Received reply to a shuffle that was never sent")
	case id < h.pendingShuffle:
		h.logger.WithFields(fields).Debug("Ignoring stale shuffle reply")
	case !h.shuffling:
		h.logger.WithFields(fields).Debug("Ignoring duplicate shuffle reply")
	default:
		h.passiveView.BoundedUnion(h.filterKnown(exchange), h.offer)
		h.offer = nil
		h.shuffling = false
	}
}

// InitiateShuffle sends a sample of both views to a random active peer, then
// fills the active view from the passive view if there is room.
func (h *HyParView) InitiateShuffle() {
	if target, ok := h.activeView.SampleOne(); ok {
		exchange := sampleExcluding(h.activeView, h.config.ShuffleActive, target)
		exchange = append(exchange, h.passiveView.Sample(h.config.ShufflePassive)...)

		id := h.shuffleID
		h.shuffleID++

		h.send(target, Shuffle{
			ID:       id,
			Origin:   h.self,
			Exchange: exchange,
			TTL:      h.config.ShuffleRWL,
		})

		h.pendingShuffle = id
		h.shuffling = true
		h.offer = exchange
	} else {
		h.logger.Debug("No active peer to shuffle with")
	}

	if !h.activeView.IsFull() {
		h.promotePassive()
	}
}

// filterKnown drops self and the active peers from a received exchange, so
// that the two views never overlap.
func (h *HyParView) filterKnown(peers []Peer) []Peer {
	res := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if p.IsZero() || p == h.self || h.activeView.Contains(p) {
			continue
		}
		res = append(res, p)
	}
	return res
}

// Leave notifies every active peer that this node is going away and moves
// them to the passive view. It is called once, before shutting down.
func (h *HyParView) Leave() {
	for _, p := range h.activeView.Elements() {
		h.send(p, Disconnect{Peer: h.self})
		h.activeView.Remove(p)
		h.addPassive(p)
	}

	h.shuffling = false
	h.offer = nil

	h.logger.Debug("Left the overlay")
}
