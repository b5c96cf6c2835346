// Package hub fans a stream of messages out to every connected subscriber,
// honoring a configurable backpressure policy when a subscriber's queue
// can't keep up. It backs both the broker's broadcast bus (BrokerEvent) and,
// transitively through it, every downstream acceptor's per-client feed.
package hub

import (
	"sync"

	"github.com/kstaniek/ctmonitor/internal/logging"
	"github.com/kstaniek/ctmonitor/internal/metrics"
)

type BackpressurePolicy int

const (
	// PolicyDrop silently discards the message for a lagging subscriber.
	PolicyDrop BackpressurePolicy = iota
	// PolicyKick closes the lagging subscriber so its owning task can exit;
	// this is what the broker broadcast bus uses, since a client that falls
	// behind beyond capacity must not be allowed to stall upstream ingestion.
	PolicyKick
)

// Client is one subscriber's inbox.
type Client[T any] struct {
	Out       chan T
	Closed    chan struct{}
	closeOnce sync.Once
}

// Close signals the client is closed (idempotent).
func (c *Client[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.Closed)
	})
}

// Hub is a generic fan-out broadcaster.
type Hub[T any] struct {
	mu         sync.RWMutex
	clients    map[*Client[T]]struct{}
	OutBufSize int
	Policy     BackpressurePolicy
}

// New creates a Hub with default settings.
func New[T any]() *Hub[T] { return &Hub[T]{clients: make(map[*Client[T]]struct{})} }

// Add registers a client with the hub.
func (h *Hub[T]) Add(c *Client[T]) {
	h.mu.Lock()
	prev := len(h.clients)
	h.clients[c] = struct{}{}
	cur := len(h.clients)
	h.mu.Unlock()
	if prev == 0 && cur == 1 {
		logging.L().Info("clients_first_connected")
	}
}

// Remove unregisters a client; safe to call multiple times.
func (h *Hub[T]) Remove(c *Client[T]) {
	h.mu.Lock()
	_, existed := h.clients[c]
	if existed {
		delete(h.clients, c)
	}
	cur := len(h.clients)
	h.mu.Unlock()
	select {
	case <-c.Closed:
	default:
		c.Close()
	}
	metrics.SetHubClients(cur)
	if existed && cur == 0 {
		logging.L().Info("clients_last_disconnected")
	}
}

// Broadcast sends msg to all connected clients honoring the backpressure
// policy.
func (h *Hub[T]) Broadcast(msg T) {
	clients := h.Snapshot()
	metrics.SetBroadcastFanout(len(clients))
	metrics.SetHubClients(len(clients))
	if len(clients) > 0 {
		max := 0
		sum := 0
		for _, c := range clients {
			l := len(c.Out)
			if l > max {
				max = l
			}
			sum += l
		}
		metrics.SetQueueDepth(max, sum/len(clients))
	}
	for _, c := range clients {
		select {
		case c.Out <- msg:
		default:
			if h.Policy == PolicyKick {
				metrics.IncHubKick()
				c.Close()
			} else {
				metrics.IncHubDrop()
			}
		}
	}
}

// Send delivers msg to a single client, honoring the same backpressure
// policy as Broadcast. The broker's snapshot replay on Connect does not use
// it; that goes through Broadcast with a target client id.
func (h *Hub[T]) Send(c *Client[T], msg T) {
	select {
	case c.Out <- msg:
	default:
		if h.Policy == PolicyKick {
			metrics.IncHubKick()
			c.Close()
		} else {
			metrics.IncHubDrop()
		}
	}
}

// Snapshot returns a slice copy of current clients (read-only use).
func (h *Hub[T]) Snapshot() []*Client[T] {
	h.mu.RLock()
	clients := make([]*Client[T], 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	return clients
}

// Count returns the number of active clients.
func (h *Hub[T]) Count() int { h.mu.RLock(); n := len(h.clients); h.mu.RUnlock(); return n }
