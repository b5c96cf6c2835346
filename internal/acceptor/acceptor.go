// Package acceptor implements the downstream-facing listeners: plain/TLS
// TCP and WebSocket. Both share the same per-client contract — subscribe to
// the broker's broadcast bus, encode each targeted AgentInfo as MessagePack,
// and hand the bytes to a transport-specific Framer for wire framing.
package acceptor

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kstaniek/ctmonitor/internal/broker"
	"github.com/kstaniek/ctmonitor/internal/hub"
	"github.com/kstaniek/ctmonitor/internal/logging"
	"github.com/kstaniek/ctmonitor/internal/metrics"
	"github.com/vmihailenco/msgpack/v5"
)

// Framer adapts the shared per-client loop to a specific wire transport.
// Handshake runs once, synchronously, right after accept (a no-op for plain
// TCP, an RFC 6455 upgrade for WebSocket). WriteFrame wraps one already
// MessagePack-encoded AgentInfo payload per the transport's framing rules.
type Framer interface {
	Handshake(conn net.Conn) error
	WriteFrame(conn net.Conn, payload []byte) error
	// IsCloseFrame reports whether b is (or begins) a transport-level close
	// request the acceptor must honor by shutting the connection down.
	IsCloseFrame(b []byte) bool
	WriteClose(conn net.Conn) error
}

// Config is shared by every acceptor implementation.
type Config struct {
	ListenAddr string
	TLSCert    string
	TLSKey     string
	MaxClients int
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.TLSCert == "" && c.TLSKey == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.TLSCert, c.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("load tls keypair: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

// Acceptor owns one listening socket and the per-client tasks spawned from
// it. broker is where Connect/Receive/Disconnect client events are
// published and where BroadcastAgentState is consumed from.
type Acceptor struct {
	cfg     Config
	broker  *broker.Broker
	framer  Framer
	logger  *slog.Logger
	name    string
	clients sync.Map // map[string]struct{} — just for MaxClients accounting
}

// New constructs an Acceptor. name identifies the transport in logs
// ("tcp" or "websocket").
func New(name string, cfg Config, b *broker.Broker, framer Framer) *Acceptor {
	return &Acceptor{cfg: cfg, broker: b, framer: framer, logger: logging.L().With("acceptor", name), name: name}
}

// Serve listens and accepts connections until ctx is cancelled.
func (a *Acceptor) Serve(ctx context.Context) error {
	tlsCfg, err := a.cfg.tlsConfig()
	if err != nil {
		return err
	}
	var ln net.Listener
	if tlsCfg != nil {
		ln, err = tls.Listen("tcp", a.cfg.ListenAddr, tlsCfg)
	} else {
		ln, err = net.Listen("tcp", a.cfg.ListenAddr)
	}
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() { <-ctx.Done(); _ = ln.Close() }()
	a.logger.Info("listen", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Warn("accept_error", "error", err)
			continue
		}
		if a.cfg.MaxClients > 0 && a.count() >= a.cfg.MaxClients {
			metrics.IncHubReject()
			_ = conn.Close()
			continue
		}
		go a.handleConn(ctx, conn)
	}
}

func (a *Acceptor) count() int {
	n := 0
	a.clients.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (a *Acceptor) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	if err := a.framer.Handshake(conn); err != nil {
		a.logger.Warn("handshake_failed", "error", err)
		return
	}

	clientID := uuid.Must(uuid.NewV7()).String()
	a.clients.Store(clientID, struct{}{})
	defer a.clients.Delete(clientID)

	log := a.logger.With("client_id", clientID, "remote", conn.RemoteAddr().String())
	log.Info("client_connected")

	sub := a.broker.Subscribe()
	defer a.broker.Unsubscribe(sub)

	select {
	case a.broker.ClientEvents <- (broker.ClientEvent{Kind: broker.ClientEventConnect, ClientID: clientID}):
	default:
	}
	defer func() {
		select {
		case a.broker.ClientEvents <- (broker.ClientEvent{Kind: broker.ClientEventDisconnect, ClientID: clientID}):
		default:
		}
	}()

	a.ioLoop(ctx, conn, clientID, sub, log)
}

// ioLoop blocks in one select on the socket's read side (fed by readLoop)
// and the broadcast bus, with no poll timeout; it terminates on read error,
// write error, broadcast subscriber closure, or context cancellation.
func (a *Acceptor) ioLoop(ctx context.Context, conn net.Conn, clientID string, sub *hub.Client[broker.BrokerEvent], log *slog.Logger) {
	readErrCh := make(chan error, 1)
	go a.readLoop(conn, clientID, readErrCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Closed:
			log.Debug("client_bus_lag_disconnect")
			return
		case err := <-readErrCh:
			if err != nil {
				log.Debug("client_read_closed", "error", err)
			}
			return
		case ev := <-sub.Out:
			if ev.Kind != broker.BrokerEventBroadcastAgentState {
				continue
			}
			if ev.TargetClientID != "" && ev.TargetClientID != clientID {
				continue
			}
			payload, err := msgpack.Marshal(ev.AgentInfo)
			if err != nil {
				log.Error("msgpack_encode_error", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := a.framer.WriteFrame(conn, payload); err != nil {
				log.Debug("client_write_error", "error", err)
				return
			}
			metrics.IncClientTx()
		}
	}
}

const writeDeadline = 2 * time.Second

func (a *Acceptor) readLoop(conn net.Conn, clientID string, errCh chan<- error) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if a.framer.IsCloseFrame(buf[:n]) {
				_ = a.framer.WriteClose(conn)
				errCh <- nil
				return
			}
			select {
			case a.broker.ClientEvents <- (broker.ClientEvent{Kind: broker.ClientEventReceive, ClientID: clientID, Data: append([]byte(nil), buf[:n]...)}):
			default:
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
