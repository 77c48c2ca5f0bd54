package net

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{}

func (nopSender) send(string, hpv.Message) error { return nil }

func TestEncodeDecode(t *testing.T) {
	cache := newPeerCache(nopSender{})
	a, b, c := cache.get("a:1"), cache.get("b:2"), cache.get("c:3")

	msgs := []hpv.Message{
		hpv.Join{Peer: a},
		hpv.ForwardJoin{Joining: a, Forwarder: b, TTL: 3},
		hpv.Neighbour{Peer: a, Prio: true},
		hpv.NeighbourReply{Peer: b, Accepted: true},
		hpv.Shuffle{ID: 42, Origin: a, Exchange: []hpv.Peer{b, c}, TTL: 1},
		hpv.ShuffleReply{ID: 42, Exchange: []hpv.Peer{c}},
		hpv.ShuffleReply{ID: 7, Exchange: []hpv.Peer{}},
		hpv.Disconnect{Peer: c},
	}

	for _, m := range msgs {
		data, err := Encode("a:1", m)
		require.NoError(t, err)
		assert.Equal(t, byte(m.Type()), data[0])

		decoded, from, err := Decode(data, cache.get)
		require.NoError(t, err)
		assert.Equal(t, "a:1", from)

		if !assert.Equal(t, m, decoded) {
			t.Fatalf("%s did not survive the wire", m.Type())
		}
	}
}

func TestEncodeLocalMessages(t *testing.T) {
	local := []hpv.Message{
		hpv.Inspect{},
		hpv.InitiateJoin{},
		hpv.ShuffleTick{},
		hpv.Reconfigure{Config: hpv.DefaultConfig()},
	}

	for _, m := range local {
		_, err := Encode("a:1", m)
		if !errors.Is(err, ErrNotWireMessage) {
			t.Fatalf("%s: expected ErrNotWireMessage, got %v", m.Type(), err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	cache := newPeerCache(nopSender{})

	if _, _, err := Decode(nil, cache.get); err != errEmptyFrame {
		t.Fatalf("expected errEmptyFrame, got %v", err)
	}

	data, err := Encode("a:1", hpv.Disconnect{Peer: cache.get("b:2")})
	require.NoError(t, err)

	data[0] = byte(hpv.InspectType)
	if _, _, err := Decode(data, cache.get); err == nil {
		t.Fatalf("local message type should be rejected")
	}

	data[0] = 200
	if _, _, err := Decode(data, cache.get); err == nil {
		t.Fatalf("unknown message type should be rejected")
	}
}

func TestDecodeMissingPeer(t *testing.T) {
	cache := newPeerCache(nopSender{})
	a := cache.get("a:1")

	msgs := []hpv.Message{
		hpv.Join{},
		hpv.ForwardJoin{Forwarder: a, TTL: 2},
		hpv.ForwardJoin{Joining: a, TTL: 2},
		hpv.Neighbour{Prio: true},
		hpv.NeighbourReply{Accepted: true},
		hpv.Shuffle{ID: 1, Exchange: []hpv.Peer{a}, TTL: 1},
		hpv.Disconnect{},
	}

	for _, m := range msgs {
		data, err := Encode("b:2", m)
		require.NoError(t, err)

		_, _, err = Decode(data, cache.get)
		if !errors.Is(err, ErrMissingPeer) {
			t.Fatalf("%s: expected ErrMissingPeer, got %v", m.Type(), err)
		}
	}

	// empty exchange entries are dropped rather than rejected
	data, err := Encode("b:2", hpv.ShuffleReply{ID: 3, Exchange: []hpv.Peer{a, {}}})
	require.NoError(t, err)

	decoded, _, err := Decode(data, cache.get)
	require.NoError(t, err)
	assert.Equal(t, hpv.ShuffleReply{ID: 3, Exchange: []hpv.Peer{a}}, decoded)
}

func TestFrames(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeFrame(&buf, []byte("hello")))
	require.NoError(t, writeFrame(&buf, []byte("world")))

	f1, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), f1)

	f2, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), f2)

	_, err = readFrame(&buf)
	assert.Error(t, err)
}

func TestPeerCacheIdentity(t *testing.T) {
	cache := newPeerCache(nopSender{})

	if cache.get("x:1") != cache.get("x:1") {
		t.Fatalf("same address should give equal peers")
	}
	if cache.get("x:1") == cache.get("x:2") {
		t.Fatalf("different addresses should give different peers")
	}
	if !cache.get("").IsZero() {
		t.Fatalf("empty address should give the zero peer")
	}
	assert.Equal(t, "x:1", cache.get("x:1").Addr())
}
