// Package hyparview wires together the components of a HyParView process.
//
// Init reads the contacts, opens the transport, and creates the node and the
// HTTP service. Run joins the overlay through the first contact and runs the
// node. Leave tells the active peers that the node is going away before
// shutting it down.
package hyparview
