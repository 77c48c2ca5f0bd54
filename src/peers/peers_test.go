package peers

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPeerSet(t *testing.T) {
	dir, err := ioutil.TempDir("", "hyparview")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPeerSet(dir)

	// A missing file is not an error
	peerSet, err := store.PeerSet()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if peerSet.Len() != 0 {
		t.Fatalf("peerSet should be empty, not %v", peerSet.NetAddrs())
	}

	peers := []*Peer{}
	for i := 0; i < 3; i++ {
		peers = append(peers, NewPeer(fmt.Sprintf("addr%d", i), fmt.Sprintf("peer%d", i)))
	}

	if err := store.Write(peers); err != nil {
		t.Fatalf("err: %v", err)
	}

	peerSet, err = store.PeerSet()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if peerSet.Len() != 3 {
		t.Fatalf("peers: %v", peerSet.NetAddrs())
	}

	for i := 0; i < 3; i++ {
		if peerSet.Peers[i].NetAddr != peers[i].NetAddr {
			t.Fatalf("peers[%d] NetAddr should be %s, not %s", i,
				peers[i].NetAddr, peerSet.Peers[i].NetAddr)
		}
		if peerSet.Peers[i].Moniker != peers[i].Moniker {
			t.Fatalf("peers[%d] Moniker should be %s, not %s", i,
				peers[i].Moniker, peerSet.Peers[i].Moniker)
		}
	}
}

func TestJSONPeerSetHandWritten(t *testing.T) {
	dir, err := ioutil.TempDir("", "hyparview")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	content := `[
		{"NetAddr": "10.0.0.1:6000", "Moniker": "alice"},
		{"NetAddr": " 10.0.0.2:6000 "},
		{"NetAddr": "10.0.0.1:6000", "Moniker": "duplicate"},
		{"NetAddr": ""}
	]`
	path := filepath.Join(dir, "peers.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))

	store := NewJSONPeerSet(dir)
	assert.Equal(t, path, store.Path())

	peerSet, err := store.PeerSet()
	require.NoError(t, err)

	// json does not go through NewPeer, so the blanks are kept
	assert.Equal(t, []string{"10.0.0.1:6000", " 10.0.0.2:6000 "}, peerSet.NetAddrs())
	assert.Equal(t, "alice", peerSet.ByNetAddr["10.0.0.1:6000"].Moniker)
}

func TestJSONPeerSetMalformed(t *testing.T) {
	dir, err := ioutil.TempDir("", "hyparview")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "peers.json"), []byte("{not json"), 0644))

	_, err = NewJSONPeerSet(dir).PeerSet()
	assert.Error(t, err)
}

func TestPeerSetOperations(t *testing.T) {
	ps := NewPeerSetFromAddrs([]string{"a", "b", "a", "", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, ps.NetAddrs())

	ps2 := ps.Merge(NewPeerSet([]*Peer{NewPeer("d", "dave"), NewPeer("a", "")}))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ps2.NetAddrs())
	assert.Equal(t, 3, ps.Len())

	assert.Equal(t, ps2, ps2.Merge(nil))

	ps3 := ps2.WithRemovedPeer("b")
	assert.Equal(t, []string{"a", "c", "d"}, ps3.NetAddrs())

	merged := NewPeerSetFromAddrs([]string{"x", "a"}).Merge(ps3)
	assert.Equal(t, []string{"x", "a", "c", "d"}, merged.NetAddrs())
}

func TestExcludePeer(t *testing.T) {
	peers := NewPeerSetFromAddrs([]string{"a", "b", "c"}).Peers

	index, others := ExcludePeer(peers, "b")
	assert.Equal(t, 1, index)
	assert.Len(t, others, 2)

	index, others = ExcludePeer(peers, "z")
	assert.Equal(t, -1, index)
	assert.Len(t, others, 3)
}

func TestPeerString(t *testing.T) {
	assert.Equal(t, "addr", NewPeer(" addr ", "").String())
	assert.Equal(t, "bob(addr)", NewPeer("addr", "bob").String())
}

func TestStaticPeers(t *testing.T) {
	var store PeerStore = NewStaticPeers("a", "b")

	ps, err := store.PeerSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ps.NetAddrs())

	require.NoError(t, store.Write([]*Peer{NewPeer("c", "")}))
	ps, err = store.PeerSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ps.NetAddrs())
}
