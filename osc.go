// Package osc builds, parses and dispatches Open Sound Control packets,
// per the OSC 1.0 spec (https://ccrma.stanford.edu/groups/osc/spec-1_0.html)
// plus the extra argument types from OSC 1.1.
//
// All builders and parsed views use fixed-capacity storage, so a Message or
// Bundle can be reused indefinitely without allocating, and a View borrows
// the bytes it was parsed from rather than copying them. That makes the
// package suitable for small devices and hot paths, at the cost of hard
// limits on message, address and argument sizes.
package osc

import (
	"net"
	"sync"
)

// Capacity limits for the fixed-size storage used throughout the package.
const (
	// MaxMessageSize is the largest serialized message, and the most the
	// server reads from a single datagram.
	MaxMessageSize = 1024
	// MaxAddressSize bounds an address including its NUL terminator.
	MaxAddressSize = 256
	// MaxTypeTags bounds the number of arguments a Message can carry.
	MaxTypeTags = 64
	// MaxArgBytes bounds the encoded argument payload of a Message.
	MaxArgBytes = 768
	// MaxBundleSize is the largest serialized bundle.
	MaxBundleSize = 4096
	// MaxArgs bounds the arguments recorded by a parsed View.
	MaxArgs = 64
	// MaxBundleDepth bounds recursion into nested bundles when
	// dispatching, so hostile input cannot blow the stack.
	MaxBundleDepth = 8
)

// Send serializes the message and sends it as a single datagram to the given
// address. The codec never fragments: a failed or short send is the
// transport's problem to report, not retried here.
func Send(conn net.PacketConn, addr string, m *Message) error {
	nAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	buf := getBuf()
	defer putBuf(buf)
	n, err := m.Build(buf)
	if err != nil {
		return err
	}
	_, err = conn.WriteTo(buf[:n], nAddr)
	return err
}

// SendBundle sends the accumulated bundle as a single datagram.
func SendBundle(conn net.PacketConn, addr string, b *Bundle) error {
	nAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	_, err = conn.WriteTo(b.Bytes(), nAddr)
	return err
}

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, MaxMessageSize)
		return &b
	},
}

func getBuf() []byte {
	b := bufPool.Get().(*[]byte)
	return *b
}

func putBuf(b []byte) {
	bufPool.Put(&b)
}
