// Package discovery advertises the broker's downstream acceptor ports over
// mDNS so agent-desktop clients on the same network segment can find them
// without a configured address.
package discovery

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
)

// ServiceTypeTCP is used whenever the TCP acceptor is enabled, taking
// precedence over ServiceTypeWebSocketOnly: a deployment running both
// acceptors advertises each acceptor's port as its own record, both under
// ServiceTypeTCP.
const (
	ServiceTypeTCP           = "_ctmonitor._tcp"
	ServiceTypeWebSocketOnly = "_ctmonitor-ws._tcp"
)

// Config controls whether and how the broker advertises itself.
type Config struct {
	Enabled bool
	Name    string
}

// Advertise registers one mDNS service record for the given serviceType
// (ServiceTypeTCP or ServiceTypeWebSocketOnly) and returns a cleanup
// function. meta is attached as TXT records. Advertise is a no-op when
// cfg.Enabled is false.
func Advertise(ctx context.Context, cfg Config, serviceType string, port int, meta []string) (func(), error) {
	if !cfg.Enabled {
		return func() {}, nil
	}
	instance := cfg.Name
	if instance == "" {
		host, _ := os.Hostname()
		instance = fmt.Sprintf("ctmonitor-%s", host)
	}
	svc, err := zeroconf.Register(instance, serviceType, "local.", port, meta, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		svc.Shutdown()
	}()
	return func() { close(done); svc.Shutdown(); time.Sleep(50 * time.Millisecond) }, nil
}
