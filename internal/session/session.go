// Package session implements the upstream CTI connection: login handshake,
// message-at-a-time read loop, heartbeat, and the unconditional A/B
// failover that keeps the broker fed whenever at least one redundant
// peripheral gateway side is reachable.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/kstaniek/ctmonitor/internal/broker"
	"github.com/kstaniek/ctmonitor/internal/cti"
	"github.com/kstaniek/ctmonitor/internal/hub"
	"github.com/kstaniek/ctmonitor/internal/logging"
	"github.com/kstaniek/ctmonitor/internal/metrics"
	"github.com/kstaniek/ctmonitor/internal/transport"
)

const (
	connectTimeout   = 3 * time.Second
	writeDeadline    = 100 * time.Millisecond
	heartbeatPeriod  = 10 * time.Second
	failoverSleep    = 500 * time.Millisecond
)

// Endpoint is one redundant upstream side.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string { return fmt.Sprintf("%s:%d", e.Host, e.Port) }

// Config carries everything a session needs to log in.
type Config struct {
	SideA, SideB   Endpoint
	PeripheralID   uint32
	ClientID       string
	ClientPassword string
}

// Engine owns the upstream connection lifecycle: connect, login, heartbeat,
// and failover. It publishes CTIEvents to the broker and consumes
// BrokerEvents (RequestHeartbeatReq, RequestAgentStateEvent) addressed to
// the session from the shared broadcast bus.
type Engine struct {
	cfg      Config
	events   chan<- broker.CTIEvent
	bus      *broker.Broker
	logger   *slog.Logger
	isActive bool // true = side A, false = side B
	invokeID atomic.Uint32
}

// New constructs an Engine bound to a broker. The broker's CTIEvents channel
// is where this session publishes; Subscribe() on the broker's bus is where
// it listens for control events to act on.
func New(cfg Config, b *broker.Broker) *Engine {
	return &Engine{
		cfg:      cfg,
		events:   b.CTIEvents,
		bus:      b,
		logger:   logging.L(),
		isActive: true,
	}
}

func (e *Engine) currentEndpoint() Endpoint {
	if e.isActive {
		return e.cfg.SideA
	}
	return e.cfg.SideB
}

// Run drives connect -> serve -> (on error) sleep/flip/reconnect forever,
// until ctx is cancelled. Failover is unconditional: there is no backoff
// and no bounded retry count.
func (e *Engine) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		e.invokeID.Store(0)
		if err := e.runOnce(ctx); err != nil {
			e.publishError(err)
			metrics.IncFailover()
			select {
			case <-ctx.Done():
				return
			case <-time.After(failoverSleep):
			}
			e.isActive = !e.isActive
		}
	}
}

func (e *Engine) publishError(err error) {
	select {
	case e.events <- broker.CTIEvent{Kind: broker.CTIEventError, Host: e.currentEndpoint().String(), Cause: err}:
	default:
	}
}

func (e *Engine) nextInvokeID() uint32 { return e.invokeID.Add(1) }

// runOnce connects to the currently active side, logs in, and serves the
// connection until a fatal error; it returns that error (nil is never
// returned for a connection that was serving — only ctx cancellation exits
// cleanly via the caller's loop check).
func (e *Engine) runOnce(ctx context.Context) error {
	ep := e.currentEndpoint()
	conn, err := net.DialTimeout("tcp", ep.String(), connectTimeout)
	if err != nil {
		metrics.IncError(metrics.ErrCTIConnect)
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer conn.Close()
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	loginID := e.nextInvokeID()
	req := cti.OpenReq{
		InvokeID:          loginID,
		VersionNumber:     24,
		IdleTimeout:       100,
		PeripheralID:      e.cfg.PeripheralID,
		ServicesRequested: 0x8000_0000 | 0x04 | 0x10 | 0x80,
		CallMsgMask:       0xFFFFFFFF,
		AgentStateMask:    0x3FFF,
		ConfigMsgMask:     0,
		ClientID:          &e.cfg.ClientID,
		ClientPassword:    &e.cfg.ClientPassword,
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if _, err := conn.Write(req.Encode()); err != nil {
		metrics.IncError(metrics.ErrCTIWrite)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	metrics.IncCTITx(cti.MessageTypeOpenReq.String())
	e.logger.Info("session_connecting", "endpoint", ep.String())

	sub := e.bus.Subscribe()
	defer e.bus.Unsubscribe(sub)

	writer := transport.NewAsyncTx(ctx, 256, func(payload []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		_, err := conn.Write(payload)
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			e.logger.Warn("upstream_write_timeout")
			return nil
		}
		return err
	}, transport.Hooks{
		OnError: func(err error) {
			e.logger.Error("upstream_write_error", "error", err)
		},
	})
	defer writer.Close()

	errCh := make(chan error, 1)
	go e.controlLoop(ctx, sub, writer, errCh)
	go e.readLoop(ctx, conn, errCh)
	go e.heartbeatLoop(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (e *Engine) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(heartbeatPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case e.events <- broker.CTIEvent{Kind: broker.CTIEventTimeToHeartbeat}:
			default:
			}
		}
	}
}

// controlLoop relays broker-published RequestHeartbeatReq/RequestAgentStateEvent
// onto the upstream write path, encoding them with a fresh invoke_id. A
// SessionTeardown event means upstream sent something this codec could not
// decode at all: the connection itself is no longer trustworthy, so this
// pushes onto errCh to force runOnce to return and the caller to fail over,
// rather than just dropping the one offending message.
func (e *Engine) controlLoop(ctx context.Context, sub *hub.Client[broker.BrokerEvent], writer *transport.AsyncTx, errCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Closed:
			return
		case ev := <-sub.Out:
			switch ev.Kind {
			case broker.BrokerEventRequestHeartbeatReq:
				hb := cti.HeartbeatReq{InvokeID: e.nextInvokeID()}
				_ = writer.SendMessage(hb.Encode())
				metrics.IncCTITx(cti.MessageTypeHeartbeatReq.String())
			case broker.BrokerEventRequestAgentStateEvent:
				req := cti.QueryAgentStateReq{
					InvokeID:     e.nextInvokeID(),
					PeripheralID: ev.PeripheralID,
					AgentID:      &ev.AgentID,
				}
				_ = writer.SendMessage(req.Encode())
				metrics.IncCTITx(cti.MessageTypeQueryAgentStateReq.String())
			case broker.BrokerEventSessionTeardown:
				metrics.IncError(metrics.ErrCTIRead)
				select {
				case errCh <- fmt.Errorf("%w: %v", ErrProtocol, ev.Cause):
				default:
				}
				return
			}
		}
	}
}

// readLoop pulls one complete CTI message at a time off the upstream
// connection and publishes each as a Received event, in wire order. The
// MHDR carries the exact body length, so a transport.MessageReader blocking
// on io.ReadFull needs no carry-over buffer across calls.
func (e *Engine) readLoop(ctx context.Context, conn net.Conn, errCh chan<- error) {
	var reader transport.MessageReader = cti.StreamCodec{}
	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := reader.ReadMessage(conn)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.IncError(metrics.ErrCTIRead)
			if errors.Is(err, io.EOF) {
				select {
				case errCh <- fmt.Errorf("%w: %v", ErrRemoteHung, err):
				default:
				}
				return
			}
			select {
			case errCh <- fmt.Errorf("%w: %v", ErrRead, err):
			default:
			}
			return
		}
		hdr, _ := cti.DecodeHeader(msg)
		select {
		case e.events <- broker.CTIEvent{Kind: broker.CTIEventReceived, MessageType: hdr.Type.String(), RawBytes: msg}:
		case <-ctx.Done():
			return
		}
	}
}
