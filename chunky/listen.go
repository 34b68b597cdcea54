package chunky

import (
	"net"

	reuseport "github.com/kavu/go_reuseport"
)

// Listen opens a plain TCP (or other net.Listen-supported network)
// listener. It is a thin pass-through kept here so embedders have one
// place to get a Server-compatible net.Listener from.
func Listen(network, addr string) (net.Listener, error) {
	return net.Listen(network, addr)
}

// ListenReusePort opens a SO_REUSEPORT listener: multiple processes
// (or goroutines across multiple listeners) can bind the same address,
// with the kernel load-balancing accepted connections across them.
// The returned net.Listener is a drop-in for Server.Serve — this is
// the accept-sharing pattern the retrieved corpus's proxy-style
// servers use for multi-process scaling, a concern spec.md leaves
// entirely to the transport layer.
func ListenReusePort(network, addr string) (net.Listener, error) {
	return reuseport.Listen(network, addr)
}
