package acceptor

import "net"

// plainFramer frames nothing at all: every payload is one MessagePack
// document written as-is, with no length prefix, matching spec's
// length-delimited-by-msgpack-itself framing for the TCP transport.
type plainFramer struct{}

// NewTCPFramer returns the Framer for the plain/TLS TCP acceptor.
func NewTCPFramer() Framer { return plainFramer{} }

func (plainFramer) Handshake(net.Conn) error { return nil }

func (plainFramer) WriteFrame(conn net.Conn, payload []byte) error {
	_, err := conn.Write(payload)
	return err
}

func (plainFramer) IsCloseFrame([]byte) bool { return false }

func (plainFramer) WriteClose(net.Conn) error { return nil }
