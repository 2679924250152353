// Package transport carries das datagrams over UDP. It discovers the host's own
// address and the /24 broadcast address derived from it, binds sockets for the
// master (coordination port) and slaves (ephemeral port), and frames integers
// through package protocol.
//
// Typical usage:
//
//	id, _ := transport.Discover("")
//	c, _ := transport.Listen(5000, transport.Options{Port: 5000, Identity: id})
//	defer c.Close()
//	_ = c.Broadcast(0)
//
// Every send is followed by a short pacing pause so that back-to-back bursts do
// not overrun receivers. This is best effort only, UDP gives no delivery guarantee.
package transport
