package hpv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromotePrioritizedWhenLastActiveDisconnects(t *testing.T) {
	_, actv := newProbe("active")
	pp, pasv := newProbe("passive")

	n := newTestNode(t, nil).withActive(actv).withPassive(pasv)

	n.Handle(Disconnect{Peer: actv})

	pp.expect(t, Neighbour{Peer: n.Self(), Prio: true})

	assert.Equal(t, 0, n.passiveView.Len())
	assert.True(t, n.activeView.Contains(pasv))
	assert.False(t, n.activeView.Contains(actv))
}

func TestPromoteUnprioritizedWhenOtherActiveRemain(t *testing.T) {
	_, actv1 := newProbe("active1")
	_, actv2 := newProbe("active2")
	pp, pasv := newProbe("passive")

	n := newTestNode(t, nil).withActive(actv1, actv2).withPassive(pasv)

	n.HandleDisconnect(actv1)

	pp.expect(t, Neighbour{Peer: n.Self(), Prio: false})

	assert.Equal(t, 0, n.passiveView.Len())
	assert.True(t, n.activeView.Contains(pasv))
	assert.True(t, n.activeView.Contains(actv2))
}

func TestDisconnectWithEmptyPassiveView(t *testing.T) {
	_, actv := newProbe("active")

	n := newTestNode(t, nil).withActive(actv)

	n.HandleDisconnect(actv)

	assert.Equal(t, 0, n.activeView.Len())
	assert.Equal(t, 0, n.passiveView.Len())
}

func TestAlwaysAcceptPrioritizedNeighbour(t *testing.T) {
	ap, actv := newProbe("active")
	np, neighbour := newProbe("neighbour")

	n := newTestNode(t, func(c *Config) {
		c.MaxActiveViewSize = 1
	}).withActive(actv)

	n.Handle(Neighbour{Peer: neighbour, Prio: true})

	np.expect(t, NeighbourReply{Peer: n.Self(), Accepted: true})
	ap.expect(t, Disconnect{Peer: n.Self()})
	assert.True(t, n.activeView.Contains(neighbour))
	assert.True(t, n.passiveView.Contains(actv))
}

func TestAcceptNeighbourWhenActiveViewNotFull(t *testing.T) {
	ap, actv := newProbe("active")
	np, neighbour := newProbe("neighbour")

	n := newTestNode(t, nil).withActive(actv)

	n.HandleNeighbour(neighbour, false)

	np.expect(t, NeighbourReply{Peer: n.Self(), Accepted: true})
	ap.expectNone(t)
	assert.True(t, n.activeView.Contains(actv))
	assert.True(t, n.activeView.Contains(neighbour))
}

func TestAcceptedNeighbourLeavesPassiveView(t *testing.T) {
	np, neighbour := newProbe("neighbour")

	n := newTestNode(t, nil).withPassive(neighbour)

	n.HandleNeighbour(neighbour, false)

	np.expect(t, NeighbourReply{Peer: n.Self(), Accepted: true})
	assert.True(t, n.activeView.Contains(neighbour))
	assert.False(t, n.passiveView.Contains(neighbour))
}

func TestRejectNeighbourWhenActiveViewFull(t *testing.T) {
	ap, actv := newProbe("active")
	np, neighbour := newProbe("neighbour")

	n := newTestNode(t, func(c *Config) {
		c.MaxActiveViewSize = 1
	}).withActive(actv)

	n.HandleNeighbour(neighbour, false)

	np.expect(t, NeighbourReply{Peer: n.Self(), Accepted: false})
	ap.expectNone(t)
	assert.Equal(t, []string{"active"}, n.Snapshot().ActiveAddrs())
}

func TestRejectionDemotesAndPromotesAnother(t *testing.T) {
	_, actv := newProbe("active")
	_, rjct := newProbe("rejecting")
	cp, cand := newProbe("candidate")

	n := newTestNode(t, nil).withActive(actv, rjct).withPassive(cand)

	n.Handle(NeighbourReply{Peer: rjct, Accepted: false})

	cp.expect(t, Neighbour{Peer: n.Self(), Prio: false})

	assert.True(t, n.activeView.Contains(actv))
	assert.True(t, n.activeView.Contains(cand))
	assert.True(t, n.passiveView.Contains(rjct))
	assert.False(t, n.activeView.Contains(rjct))
}

func TestAcceptedNeighbourReplyChangesNothing(t *testing.T) {
	_, actv := newProbe("active")
	_, pasv := newProbe("passive")

	n := newTestNode(t, nil).withActive(actv).withPassive(pasv)
	before := n.Snapshot()

	n.HandleNeighbourReply(actv, true)

	assert.True(t, before.Equal(n.Snapshot()))
}

func TestLeaveDisconnectsActivePeers(t *testing.T) {
	ap1, actv1 := newProbe("active1")
	ap2, actv2 := newProbe("active2")
	pp, pasv := newProbe("passive")

	n := newTestNode(t, nil).withActive(actv1, actv2).withPassive(pasv)

	n.Leave()

	ap1.expect(t, Disconnect{Peer: n.Self()})
	ap2.expect(t, Disconnect{Peer: n.Self()})
	pp.expectNone(t)

	assert.Equal(t, 0, n.activeView.Len())
	assert.Equal(t, []string{"active1", "active2", "passive"}, n.Snapshot().PassiveAddrs())
}
