package hpv

import (
	"errors"
	"testing"

	"github.com/mosaicnetworks/hyparview/src/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe is a Recipient that records the messages it receives.
type probe struct {
	name string
	msgs chan Message
}

func newProbe(name string) (*probe, Peer) {
	p := &probe{
		name: name,
		msgs: make(chan Message, 32),
	}
	return p, NewPeer(p)
}

func (p *probe) Send(msg Message) error {
	select {
	case p.msgs <- msg:
		return nil
	default:
		return errors.New("probe full")
	}
}

func (p *probe) String() string {
	return p.name
}

func (p *probe) next(t *testing.T) Message {
	t.Helper()
	select {
	case m := <-p.msgs:
		return m
	default:
		t.Fatalf("%s: expected a message, got none", p.name)
	}
	return nil
}

func (p *probe) expect(t *testing.T, want Message) {
	t.Helper()
	got := p.next(t)
	if !assert.Equal(t, want, got) {
		t.FailNow()
	}
}

func (p *probe) expectNone(t *testing.T) {
	t.Helper()
	select {
	case m := <-p.msgs:
		t.Fatalf("%s: expected no message, got %v", p.name, m)
	default:
	}
}

// testNode builds a HyParView whose self peer is a probe.
type testNode struct {
	*HyParView
	selfProbe *probe
	out       chan Peer
}

func newTestNode(t *testing.T, setup func(*Config)) *testNode {
	conf := DefaultConfig()
	if setup != nil {
		setup(&conf)
	}

	selfProbe, self := newProbe("self")
	out := make(chan Peer, 32)

	return &testNode{
		HyParView: New(self, conf, out, common.NewTestEntry(t, common.TestLogLevel)),
		selfProbe: selfProbe,
		out:       out,
	}
}

func (n *testNode) withActive(peers ...Peer) *testNode {
	for _, p := range peers {
		n.activeView.Insert(p)
	}
	return n
}

func (n *testNode) withPassive(peers ...Peer) *testNode {
	for _, p := range peers {
		n.passiveView.Insert(p)
	}
	return n
}

func (n *testNode) withShuffling(id uint32, offer ...Peer) *testNode {
	n.pendingShuffle = id
	n.shuffleID = id + 1
	n.shuffling = true
	n.offer = offer
	return n
}

func (n *testNode) expectDiscovered(t *testing.T, want Peer) {
	t.Helper()
	select {
	case p := <-n.out:
		if p != want {
			t.Fatalf("discovered %s, expected %s", p, want)
		}
	default:
		t.Fatalf("expected %s to be discovered", want)
	}
}

func (n *testNode) expectNothingDiscovered(t *testing.T) {
	t.Helper()
	select {
	case p := <-n.out:
		t.Fatalf("unexpected discovery of %s", p)
	default:
	}
}

func TestNewHyParView(t *testing.T) {
	n := newTestNode(t, nil)

	assert.Equal(t, 0, n.activeView.Len())
	assert.Equal(t, DefaultMaxActiveViewSize, n.activeView.Capacity())
	assert.Equal(t, 0, n.passiveView.Len())
	assert.Equal(t, DefaultMaxPassiveViewSize, n.passiveView.Capacity())
	assert.False(t, n.shuffling)
	assert.Equal(t, uint32(0), n.shuffleID)
}

func TestInspect(t *testing.T) {
	n := newTestNode(t, nil)

	replies := make(chan Views, 1)
	n.Handle(Inspect{ReplyTo: replies})

	views := <-replies

	expected := Views{
		Active:  common.NewBoundedSet[Peer](DefaultMaxActiveViewSize),
		Passive: common.NewBoundedSet[Peer](DefaultMaxPassiveViewSize),
	}
	if !views.Equal(expected) {
		t.Fatalf("Views should be empty, got active %v passive %v",
			views.ActiveAddrs(), views.PassiveAddrs())
	}
}

func TestInspectReturnsCopy(t *testing.T) {
	_, a := newProbe("a")
	_, p := newProbe("p")
	_, other := newProbe("other")

	n := newTestNode(t, nil).withActive(a).withPassive(p)

	replies := make(chan Views, 1)
	n.HandleInspect(replies)
	views := <-replies

	assert.Equal(t, []string{"a"}, views.ActiveAddrs())
	assert.Equal(t, []string{"p"}, views.PassiveAddrs())

	views.Active.Insert(other)
	assert.False(t, n.activeView.Contains(other))
}

func TestInspectDoesNotBlock(t *testing.T) {
	n := newTestNode(t, nil)

	replies := make(chan Views)
	n.HandleInspect(replies)
	n.HandleInspect(nil)
}

func TestReconfigure(t *testing.T) {
	a, b, c := mockPeer("a"), mockPeer("b"), mockPeer("c")

	n := newTestNode(t, nil).withActive(a, b, c)

	conf := n.Config()
	conf.MaxActiveViewSize = 2
	conf.MaxPassiveViewSize = 7
	n.Handle(Reconfigure{Config: conf})

	assert.Equal(t, 2, n.Config().MaxActiveViewSize)
	assert.Equal(t, 2, n.activeView.Capacity())
	assert.Equal(t, 7, n.passiveView.Capacity())

	// shrinking does not evict
	assert.Equal(t, 3, n.activeView.Len())

	_, d := newProbe("d")
	n.HandleNeighbour(d, false)
	assert.False(t, n.activeView.Contains(d))
}

func TestSendFailuresAreIgnored(t *testing.T) {
	n := newTestNode(t, nil)

	var dead Peer
	n.HandleInitiateJoin(dead)

	stats := n.Stats()
	assert.Equal(t, "1", stats["send_failures"])
}

func TestStats(t *testing.T) {
	a, b := mockPeer("a"), mockPeer("b")

	n := newTestNode(t, nil).withActive(a).withPassive(b)
	n.Handle(ShuffleTick{})

	stats := n.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, "self", stats["self"])
	assert.Equal(t, "1", stats["shuffle_id"])
	assert.Equal(t, "true", stats["shuffling"])
	assert.Equal(t, "1", stats["handled_ShuffleTick"])
}

func TestSeedPassive(t *testing.T) {
	a, b, c := mockPeer("a"), mockPeer("b"), mockPeer("c")

	n := newTestNode(t, func(conf *Config) {
		conf.MaxPassiveViewSize = 2
	}).withActive(a)

	n.SeedPassive(n.Self(), a, b, c)

	assert.Equal(t, 2, n.passiveView.Len())
	assert.False(t, n.passiveView.Contains(a))
	assert.False(t, n.passiveView.Contains(n.Self()))
}

func TestZeroPeersAreIgnored(t *testing.T) {
	ap, actv := newProbe("active")

	n := newTestNode(t, nil).withActive(actv)

	n.HandleJoin(Peer{})
	n.HandleForwardJoin(Peer{}, actv, 3)
	n.HandleForwardJoin(actv, Peer{}, 0)
	n.HandleNeighbour(Peer{}, true)
	n.SeedPassive(Peer{})
	n.addActive(Peer{})
	n.addPassive(Peer{})

	ap.expectNone(t)
	assert.Equal(t, []string{"active"}, n.Snapshot().ActiveAddrs())
	assert.Equal(t, 0, n.passiveView.Len())
}

// mockPeer returns a Peer whose messages are never inspected.
func mockPeer(name string) Peer {
	_, p := newProbe(name)
	return p
}
