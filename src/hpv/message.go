package hpv

import "fmt"

// MessageType identifies the variant of a Message.
type MessageType uint8

const (
	InspectType MessageType = iota
	InitiateJoinType
	JoinType
	ForwardJoinType
	NeighbourType
	NeighbourReplyType
	ShuffleType
	ShuffleReplyType
	DisconnectType
	ShuffleTickType
	ReconfigureType
)

// String ...
func (t MessageType) String() string {
	switch t {
	case InspectType:
		return "Inspect"
	case InitiateJoinType:
		return "InitiateJoin"
	case JoinType:
		return "Join"
	case ForwardJoinType:
		return "ForwardJoin"
	case NeighbourType:
		return "Neighbour"
	case NeighbourReplyType:
		return "NeighbourReply"
	case ShuffleType:
		return "Shuffle"
	case ShuffleReplyType:
		return "ShuffleReply"
	case DisconnectType:
		return "Disconnect"
	case ShuffleTickType:
		return "ShuffleTick"
	case ReconfigureType:
		return "Reconfigure"
	default:
		return "Unknown"
	}
}

// Message is one of the events a HyParView node reacts to. The set of
// messages is closed; only the types of this package implement it.
type Message interface {
	Type() MessageType
	isMessage()
}

// Inspect requests a snapshot of the views, delivered on ReplyTo.
type Inspect struct {
	ReplyTo chan<- Views
}

// InitiateJoin asks the node to join the overlay through Contact.
type InitiateJoin struct {
	Contact Peer
}

// Join is sent by a node that wants to enter the overlay.
type Join struct {
	Peer Peer
}

// ForwardJoin propagates a Join along a random walk of at most TTL hops.
type ForwardJoin struct {
	Joining   Peer
	Forwarder Peer
	TTL       int
}

// Neighbour asks the receiver to add Peer to its active view. A prioritised
// request is always accepted.
type Neighbour struct {
	Peer Peer
	Prio bool
}

// NeighbourReply answers a Neighbour request.
type NeighbourReply struct {
	Peer     Peer
	Accepted bool
}

// Shuffle carries a sample of the Origin's views along a random walk.
type Shuffle struct {
	ID       uint32
	Origin   Peer
	Exchange []Peer
	TTL      int
}

// ShuffleReply returns a sample of the receiver's passive view to the origin
// of a Shuffle.
type ShuffleReply struct {
	ID       uint32
	Exchange []Peer
}

// Disconnect notifies the receiver that Peer dropped it from its active view.
type Disconnect struct {
	Peer Peer
}

// ShuffleTick is fired by the shuffle timer. It never travels on the wire.
type ShuffleTick struct{}

// Reconfigure replaces the configuration of a running node. It never travels
// on the wire.
type Reconfigure struct {
	Config Config
}

func (Inspect) Type() MessageType        { return InspectType }
func (InitiateJoin) Type() MessageType   { return InitiateJoinType }
func (Join) Type() MessageType           { return JoinType }
func (ForwardJoin) Type() MessageType    { return ForwardJoinType }
func (Neighbour) Type() MessageType      { return NeighbourType }
func (NeighbourReply) Type() MessageType { return NeighbourReplyType }
func (Shuffle) Type() MessageType        { return ShuffleType }
func (ShuffleReply) Type() MessageType   { return ShuffleReplyType }
func (Disconnect) Type() MessageType     { return DisconnectType }
func (ShuffleTick) Type() MessageType    { return ShuffleTickType }
func (Reconfigure) Type() MessageType    { return ReconfigureType }

func (Inspect) isMessage()        {}
func (InitiateJoin) isMessage()   {}
func (Join) isMessage()           {}
func (ForwardJoin) isMessage()    {}
func (Neighbour) isMessage()      {}
func (NeighbourReply) isMessage() {}
func (Shuffle) isMessage()        {}
func (ShuffleReply) isMessage()   {}
func (Disconnect) isMessage()     {}
func (ShuffleTick) isMessage()    {}
func (Reconfigure) isMessage()    {}

func (m Join) String() string {
	return fmt.Sprintf("Join(%s)", m.Peer)
}

func (m ForwardJoin) String() string {
	return fmt.Sprintf("ForwardJoin(%s, %s, %d)", m.Joining, m.Forwarder, m.TTL)
}

func (m Neighbour) String() string {
	return fmt.Sprintf("Neighbour(%s, %t)", m.Peer, m.Prio)
}

func (m NeighbourReply) String() string {
	return fmt.Sprintf("NeighbourReply(%s, %t)", m.Peer, m.Accepted)
}

func (m Shuffle) String() string {
	return fmt.Sprintf("Shuffle(%d, %s, %v, %d)", m.ID, m.Origin, Addrs(m.Exchange), m.TTL)
}

func (m ShuffleReply) String() string {
	return fmt.Sprintf("ShuffleReply(%d, %v)", m.ID, Addrs(m.Exchange))
}

func (m Disconnect) String() string {
	return fmt.Sprintf("Disconnect(%s)", m.Peer)
}
