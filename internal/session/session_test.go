package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/kstaniek/ctmonitor/internal/agent"
	"github.com/kstaniek/ctmonitor/internal/broker"
	"github.com/kstaniek/ctmonitor/internal/cti"
)

func fixedNow(t uint64) agent.Clock { return func() uint64 { return t } }

// fakeUpstream accepts exactly one connection and hands it over on the
// returned channel; the test reads the OPEN_REQ and drives further
// writes/reads over that conn.
func fakeUpstream(t *testing.T) (net.Listener, <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	connCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		connCh <- conn
	}()
	return ln, connCh
}

func TestEngineSendsOpenReqOnConnect(t *testing.T) {
	ln, connCh := fakeUpstream(t)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	b := broker.New(fixedNow(0))
	cfg := Config{
		SideA:          Endpoint{Host: "127.0.0.1", Port: addr.Port},
		SideB:          Endpoint{Host: "127.0.0.1", Port: addr.Port},
		PeripheralID:   5000,
		ClientID:       "ctmonitor",
		ClientPassword: "",
	}
	e := New(cfg, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	go b.Run(ctx)

	var conn net.Conn
	select {
	case conn = <-connCh:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream never accepted a connection")
	}
	defer conn.Close()

	header := make([]byte, cti.HeaderSize)
	if _, err := readFull(conn, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	hdr, err := cti.DecodeHeader(header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Type != cti.MessageTypeOpenReq {
		t.Fatalf("got message type %v, want OPEN_REQ", hdr.Type)
	}
	body := make([]byte, hdr.Length)
	if _, err := readFull(conn, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	req, err := cti.DecodeOpenReq(append(header, body...))
	if err != nil {
		t.Fatalf("DecodeOpenReq: %v", err)
	}
	if req.VersionNumber != 24 || req.PeripheralID != 5000 {
		t.Fatalf("unexpected OPEN_REQ: %+v", req)
	}
	if req.ClientID == nil || *req.ClientID != "ctmonitor" {
		t.Fatalf("ClientID = %v", req.ClientID)
	}
}

func TestEngineForwardsUpstreamMessagesToBroker(t *testing.T) {
	ln, connCh := fakeUpstream(t)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	b := broker.New(fixedNow(1000))
	cfg := Config{
		SideA:        Endpoint{Host: "127.0.0.1", Port: addr.Port},
		SideB:        Endpoint{Host: "127.0.0.1", Port: addr.Port},
		PeripheralID: 5000,
		ClientID:     "ctmonitor",
	}
	e := New(cfg, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	go b.Run(ctx)

	var conn net.Conn
	select {
	case conn = <-connCh:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream never accepted a connection")
	}
	defer conn.Close()
	// Drain the OPEN_REQ so our write isn't interleaved oddly (not required
	// for correctness, but keeps the byte stream tidy for inspection).
	header := make([]byte, cti.HeaderSize)
	_, _ = readFull(conn, header)
	if hdr, err := cti.DecodeHeader(header); err == nil {
		body := make([]byte, hdr.Length)
		_, _ = readFull(conn, body)
	}

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	name := "Team Alpha"
	evt := cti.AgentTeamConfigEvent{
		PeripheralID:  5000,
		AgentTeamName: &name,
		Agents:        []cti.AgentTeamConfigAgent{{AgentID: func() *string { s := "1001"; return &s }()}},
	}
	if _, err := conn.Write(evt.Encode()); err != nil {
		t.Fatalf("write team config event: %v", err)
	}

	select {
	case got := <-sub.Out:
		if got.Kind != broker.BrokerEventRequestAgentStateEvent && got.Kind != broker.BrokerEventBroadcastAgentState {
			t.Fatalf("unexpected broker event kind: %v", got.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broker never observed the forwarded message")
	}
}

func TestEngineReconnectsAfterBrokerSignalsTeardown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	connCh := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			connCh <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	b := broker.New(fixedNow(0))
	cfg := Config{
		SideA:        Endpoint{Host: "127.0.0.1", Port: addr.Port},
		SideB:        Endpoint{Host: "127.0.0.1", Port: addr.Port},
		PeripheralID: 5000,
		ClientID:     "ctmonitor",
	}
	e := New(cfg, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	go b.Run(ctx)

	var first net.Conn
	select {
	case first = <-connCh:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream never accepted the first connection")
	}
	defer first.Close()

	// A body shorter than any known message's fixed prefix: DecodeHeader
	// succeeds but the per-type decoder fails, so the broker must signal
	// teardown rather than just dropping the message.
	garbage := cti.EncodeHeader(2, cti.MessageTypeHeartbeatReq)
	garbage = append(garbage, 0, 0)
	if _, err := first.Write(garbage); err != nil {
		t.Fatalf("write malformed message: %v", err)
	}

	select {
	case second := <-connCh:
		defer second.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("engine never reconnected after a malformed upstream message")
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
