package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/kstaniek/ctmonitor/internal/agent"
	"github.com/kstaniek/ctmonitor/internal/cti"
	"github.com/kstaniek/ctmonitor/internal/hub"
	"github.com/kstaniek/ctmonitor/internal/logging"
	"github.com/kstaniek/ctmonitor/internal/metrics"
)

// Broker multiplexes upstream CTI events and downstream client control
// events onto the agent-state projection, and republishes results onto the
// shared broadcast bus every session and acceptor subscribes to.
type Broker struct {
	CTIEvents    chan CTIEvent
	ClientEvents chan ClientEvent
	Bus          *hub.Hub[BrokerEvent]

	projection *agent.Projection
	logger     *slog.Logger
}

// New constructs a Broker. now supplies the wall clock the projection uses
// to compute state_duration starts; production callers pass time.Now unix
// seconds, tests pass a fixed value.
func New(now agent.Clock) *Broker {
	bus := hub.New[BrokerEvent]()
	bus.Policy = hub.PolicyKick // a lagging subscriber must not stall ingestion
	bus.OutBufSize = BrokerEventCapacity
	return &Broker{
		CTIEvents:    make(chan CTIEvent, CTIEventCapacity),
		ClientEvents: make(chan ClientEvent, ClientEventCapacity),
		Bus:          bus,
		projection:   agent.NewProjection(now),
		logger:       logging.L(),
	}
}

// Subscribe registers a new broadcast-bus subscriber (a session engine
// waiting for RequestHeartbeatReq/RequestAgentStateEvent, or an acceptor's
// per-client task waiting for BroadcastAgentState).
func (b *Broker) Subscribe() *hub.Client[BrokerEvent] {
	c := &hub.Client[BrokerEvent]{
		Out:    make(chan BrokerEvent, BrokerEventCapacity),
		Closed: make(chan struct{}),
	}
	b.Bus.Add(c)
	return c
}

// Unsubscribe removes a subscriber registered via Subscribe.
func (b *Broker) Unsubscribe(c *hub.Client[BrokerEvent]) { b.Bus.Remove(c) }

// Run drives the broker's single-threaded consumption of CTIEvents and
// ClientEvents until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.CTIEvents:
			b.handleCTIEvent(ev)
		case ev := <-b.ClientEvents:
			b.handleClientEvent(ev)
		}
	}
}

func (b *Broker) handleCTIEvent(ev CTIEvent) {
	switch ev.Kind {
	case CTIEventTimeToHeartbeat:
		b.Bus.Broadcast(BrokerEvent{Kind: BrokerEventRequestHeartbeatReq})
	case CTIEventError:
		b.logger.Warn("upstream_session_error", "host", ev.Host, "error", ev.Cause)
	case CTIEventReceived:
		b.handleReceived(ev)
	}
}

func (b *Broker) handleReceived(ev CTIEvent) {
	msg, err := cti.Decode(ev.RawBytes)
	if err != nil {
		metrics.IncDecodeError()
		b.logger.Warn("cti_decode_error_tearing_down_session", "error", err)
		b.Bus.Broadcast(BrokerEvent{Kind: BrokerEventSessionTeardown, Cause: err})
		return
	}
	metrics.IncCTIRx(msg.Header.Type.String())

	switch m := msg.Body.(type) {
	case cti.OpenConf:
		b.logger.Info("open_conf", "monitor_id", m.MonitorID)
	case cti.AgentTeamConfigEvent:
		b.applyTeamConfig(m)
	case cti.QueryAgentStateConf:
		if info, ok := b.projection.ApplyQueryAgentStateConf(m); ok {
			b.broadcastAgent(info, "")
		}
	case cti.AgentStateEvent:
		if m.AgentID == nil {
			return
		}
		if info, ok := b.projection.ApplyAgentStateEvent(m); ok {
			b.broadcastAgent(info, "")
		}
	default:
		b.logger.Debug("cti_message_ignored", "type", msg.Header.Type.String())
	}
}

func (b *Broker) applyTeamConfig(m cti.AgentTeamConfigEvent) {
	for _, rec := range m.Agents {
		if rec.AgentID == nil {
			continue
		}
		info, ok := b.projection.ApplyTeamConfig(rec)
		if !ok {
			continue
		}
		b.Bus.Broadcast(BrokerEvent{
			Kind:         BrokerEventRequestAgentStateEvent,
			PeripheralID: m.PeripheralID,
			AgentID:      *rec.AgentID,
		})
		b.broadcastAgent(info, "")
	}
	metrics.SetAgentsTracked(len(b.projection.Snapshot()))
}

func (b *Broker) broadcastAgent(info agent.Info, targetClientID string) {
	b.Bus.Broadcast(BrokerEvent{
		Kind:           BrokerEventBroadcastAgentState,
		AgentInfo:      info,
		TargetClientID: targetClientID,
	})
}

func (b *Broker) handleClientEvent(ev ClientEvent) {
	switch ev.Kind {
	case ClientEventConnect:
		for _, info := range b.projection.Snapshot() {
			b.broadcastAgent(info, ev.ClientID)
		}
	case ClientEventReceive:
		b.logger.Debug("client_data_received", "client_id", ev.ClientID, "bytes", len(ev.Data))
	case ClientEventDisconnect:
	}
}

// Now is the default clock used outside tests.
func Now() uint64 { return uint64(time.Now().Unix()) }
