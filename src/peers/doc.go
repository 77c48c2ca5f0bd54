// Package peers manages the bootstrap contacts of a HyParView node.
//
// A contact is the address of a node that is expected to be part of the
// overlay already. Upon starting up, a node reads the optional peers.json file
// in its data directory, and any contacts given on the command line. It joins
// the overlay through the first contact that is not itself, and seeds its
// passive view with all of them so that it can recover if the overlay shrinks
// down to nothing.
//
// The peers.json file is a JSON list of objects with a NetAddr and an optional
// Moniker:
//
//	[
//		{"NetAddr": "10.0.0.1:6000", "Moniker": "alice"},
//		{"NetAddr": "10.0.0.2:6000"}
//	]
//
// The membership itself is not persisted; the file is only read at startup.
package peers
