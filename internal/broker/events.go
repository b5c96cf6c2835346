// Package broker owns the agent-state projection and the broadcast bus that
// the upstream session engine (internal/session) and every downstream
// acceptor subscribe to. It is the single point of serialization for agent
// map mutation.
package broker

import "github.com/kstaniek/ctmonitor/internal/agent"

// Channel capacities from the concurrency/resource model: ingress overflow
// is fatal (the broker is a single consumer expected to keep up), broadcast
// overflow is tolerated per-subscriber, client-event overflow is generous
// headroom for connect/disconnect churn.
const (
	CTIEventCapacity     = 1024
	BrokerEventCapacity  = 1024
	ClientEventCapacity  = 4096
)

// CTIEvent is published by the session engine and consumed by the broker.
type CTIEvent struct {
	Kind CTIEventKind

	// Error
	Host  string
	Cause error

	// Received
	MessageType string
	RawBytes    []byte
}

type CTIEventKind int

const (
	CTIEventTimeToHeartbeat CTIEventKind = iota
	CTIEventError
	CTIEventReceived
)

// BrokerEvent is published by the broker and consumed by session engines
// (RequestHeartbeatReq, RequestAgentStateEvent, SessionTeardown) and by
// acceptors (BroadcastAgentState), via the shared broadcast bus.
type BrokerEvent struct {
	Kind BrokerEventKind

	// BroadcastAgentState
	AgentInfo      agent.Info
	TargetClientID string // empty means "all clients"

	// RequestAgentStateEvent
	PeripheralID uint32
	AgentID      string

	// SessionTeardown
	Cause error
}

type BrokerEventKind int

const (
	BrokerEventBroadcastAgentState BrokerEventKind = iota
	BrokerEventRequestAgentStateEvent
	BrokerEventRequestHeartbeatReq
	// BrokerEventSessionTeardown tells every session engine subscriber
	// that upstream input violated the protocol and the connection it
	// came in on must be torn down and failed over, not just the one
	// offending message dropped.
	BrokerEventSessionTeardown
)

// ClientEvent is published by an acceptor's per-client task and consumed by
// the broker.
type ClientEvent struct {
	Kind     ClientEventKind
	ClientID string
	Data     []byte // Receive only
}

type ClientEventKind int

const (
	ClientEventConnect ClientEventKind = iota
	ClientEventReceive
	ClientEventDisconnect
)
