package net

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/ugorji/go/codec"
)

const (
	// maxFrameSize bounds the size of an incoming frame.
	maxFrameSize = 1 << 20
)

var (
	// ErrNotWireMessage is returned when trying to encode a message that only
	// exists inside a node, like Inspect or ShuffleTick.
	ErrNotWireMessage = errors.New("message cannot be sent over the wire")

	// ErrMissingPeer is returned when decoding a message whose required peer
	// address is empty.
	ErrMissingPeer = errors.New("missing peer address")

	errEmptyFrame = errors.New("empty frame")
)

// WireMessage is the serialisable form of the protocol messages. Peers are
// identified by their advertise address. Only the fields relevant to the
// message type are set.
type WireMessage struct {
	From      string
	Peer      string
	Joining   string
	Forwarder string
	Origin    string
	Exchange  []string
	TTL       int
	ID        uint32
	Prio      bool
	Accepted  bool
}

// ToWire converts a protocol message to its wire form.
func ToWire(from string, msg hpv.Message) (WireMessage, error) {
	wm := WireMessage{From: from}

	switch m := msg.(type) {
	case hpv.Join:
		wm.Peer = m.Peer.Addr()
	case hpv.ForwardJoin:
		wm.Joining = m.Joining.Addr()
		wm.Forwarder = m.Forwarder.Addr()
		wm.TTL = m.TTL
	case hpv.Neighbour:
		wm.Peer = m.Peer.Addr()
		wm.Prio = m.Prio
	case hpv.NeighbourReply:
		wm.Peer = m.Peer.Addr()
		wm.Accepted = m.Accepted
	case hpv.Shuffle:
		wm.ID = m.ID
		wm.Origin = m.Origin.Addr()
		wm.Exchange = hpv.Addrs(m.Exchange)
		wm.TTL = m.TTL
	case hpv.ShuffleReply:
		wm.ID = m.ID
		wm.Exchange = hpv.Addrs(m.Exchange)
	case hpv.Disconnect:
		wm.Peer = m.Peer.Addr()
	default:
		return wm, fmt.Errorf("%w: %s", ErrNotWireMessage, msg.Type())
	}

	return wm, nil
}

// ToMessage rebuilds the protocol message of type t, resolving addresses to
// peers with resolve. The peers a message is about must be present.
func (wm WireMessage) ToMessage(t hpv.MessageType, resolve func(string) hpv.Peer) (hpv.Message, error) {
	switch t {
	case hpv.JoinType, hpv.NeighbourType, hpv.NeighbourReplyType, hpv.DisconnectType:
		if wm.Peer == "" {
			return nil, fmt.Errorf("%s: %w", t, ErrMissingPeer)
		}
	case hpv.ForwardJoinType:
		if wm.Joining == "" || wm.Forwarder == "" {
			return nil, fmt.Errorf("%s: %w", t, ErrMissingPeer)
		}
	case hpv.ShuffleType:
		if wm.Origin == "" {
			return nil, fmt.Errorf("%s: %w", t, ErrMissingPeer)
		}
	}

	switch t {
	case hpv.JoinType:
		return hpv.Join{Peer: resolve(wm.Peer)}, nil
	case hpv.ForwardJoinType:
		return hpv.ForwardJoin{
			Joining:   resolve(wm.Joining),
			Forwarder: resolve(wm.Forwarder),
			TTL:       wm.TTL,
		}, nil
	case hpv.NeighbourType:
		return hpv.Neighbour{Peer: resolve(wm.Peer), Prio: wm.Prio}, nil
	case hpv.NeighbourReplyType:
		return hpv.NeighbourReply{Peer: resolve(wm.Peer), Accepted: wm.Accepted}, nil
	case hpv.ShuffleType:
		return hpv.Shuffle{
			ID:       wm.ID,
			Origin:   resolve(wm.Origin),
			Exchange: resolveAll(wm.Exchange, resolve),
			TTL:      wm.TTL,
		}, nil
	case hpv.ShuffleReplyType:
		return hpv.ShuffleReply{
			ID:       wm.ID,
			Exchange: resolveAll(wm.Exchange, resolve),
		}, nil
	case hpv.DisconnectType:
		return hpv.Disconnect{Peer: resolve(wm.Peer)}, nil
	default:
		return nil, fmt.Errorf("unknown message type %d", t)
	}
}

// resolveAll drops empty addresses.
func resolveAll(addrs []string, resolve func(string) hpv.Peer) []hpv.Peer {
	res := make([]hpv.Peer, 0, len(addrs))
	for _, a := range addrs {
		if a == "" {
			continue
		}
		res = append(res, resolve(a))
	}
	return res
}

// Encode serialises msg as one byte indicating the message type, followed by
// the msgpack encoded WireMessage.
func Encode(from string, msg hpv.Message) ([]byte, error) {
	wm, err := ToWire(from, msg)
	if err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	b.WriteByte(byte(msg.Type()))

	mh := new(codec.MsgpackHandle)
	enc := codec.NewEncoder(b, mh)

	if err := enc.Encode(&wm); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Decode parses the output of Encode. It also returns the address of the
// sender.
func Decode(data []byte, resolve func(string) hpv.Peer) (hpv.Message, string, error) {
	if len(data) == 0 {
		return nil, "", errEmptyFrame
	}

	t := hpv.MessageType(data[0])

	var wm WireMessage

	mh := new(codec.MsgpackHandle)
	dec := codec.NewDecoder(bytes.NewBuffer(data[1:]), mh)

	if err := dec.Decode(&wm); err != nil {
		return nil, "", err
	}

	msg, err := wm.ToMessage(t, resolve)
	if err != nil {
		return nil, "", err
	}

	return msg, wm.From, nil
}

// writeFrame writes a length-prefixed frame.
func writeFrame(w io.Writer, frame []byte) error {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(frame)))

	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}

// readFrame reads a frame written by writeFrame.
func readFrame(r io.Reader) ([]byte, error) {
	var size [4]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(size[:])
	if n == 0 {
		return nil, errEmptyFrame
	}
	if n > maxFrameSize {
		return nil, fmt.Errorf("frame too large: %d bytes", n)
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
