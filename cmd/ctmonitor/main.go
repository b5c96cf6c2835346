package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kstaniek/ctmonitor/internal/acceptor"
	"github.com/kstaniek/ctmonitor/internal/broker"
	"github.com/kstaniek/ctmonitor/internal/discovery"
	"github.com/kstaniek/ctmonitor/internal/metrics"
	"github.com/kstaniek/ctmonitor/internal/session"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-version" {
		fmt.Printf("ctmonitor %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	b := broker.New(broker.Now)
	wg.Add(1)
	go func() { defer wg.Done(); b.Run(ctx) }()

	eng := session.New(session.Config{
		SideA:          session.Endpoint{Host: cfg.sideAHost, Port: cfg.sideAPort},
		SideB:          session.Endpoint{Host: cfg.sideBHost, Port: cfg.sideBPort},
		PeripheralID:   cfg.peripheralID,
		ClientID:       cfg.clientID,
		ClientPassword: cfg.clientPassword,
	}, b)
	wg.Add(1)
	go func() { defer wg.Done(); eng.Run(ctx) }()

	readyFns := startAcceptors(ctx, cfg, b, l, &wg)

	metrics.SetReadinessFunc(func() bool {
		if ctx.Err() != nil {
			return false
		}
		for _, ready := range readyFns {
			if !ready() {
				return false
			}
		}
		return true
	})

	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	wg.Wait()
}

// startAcceptors wires the enabled TCP/WebSocket listeners and their
// optional mDNS advertisement, returning one readiness probe per acceptor.
func startAcceptors(ctx context.Context, cfg *appConfig, b *broker.Broker, l *slog.Logger, wg *sync.WaitGroup) []func() bool {
	var ready []func() bool

	if cfg.tcpEnabled {
		tcpCfg := acceptor.Config{
			ListenAddr: fmt.Sprintf(":%d", cfg.tcpPort),
			MaxClients: cfg.maxClients,
		}
		if cfg.tcpSecure {
			tcpCfg.TLSCert = cfg.tcpCertFile
			tcpCfg.TLSKey = cfg.tcpKeyFile
		}
		a := acceptor.New("tcp", tcpCfg, b, acceptor.NewTCPFramer())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Serve(ctx); err != nil {
				l.Error("tcp_acceptor_error", "error", err)
			}
		}()
		ready = append(ready, func() bool { return true })

		go advertise(ctx, cfg, l, discovery.ServiceTypeTCP, cfg.tcpPort, "transport=tcp")
	}

	if cfg.wsEnabled {
		wsCfg := acceptor.Config{
			ListenAddr: fmt.Sprintf(":%d", cfg.wsPort),
			MaxClients: cfg.maxClients,
		}
		if cfg.wsSecure {
			wsCfg.TLSCert = cfg.wsCertFile
			wsCfg.TLSKey = cfg.wsKeyFile
		}
		a := acceptor.New("websocket", wsCfg, b, acceptor.NewWebSocketFramer(cfg.wsPath))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Serve(ctx); err != nil {
				l.Error("websocket_acceptor_error", "error", err)
			}
		}()
		ready = append(ready, func() bool { return true })

		serviceType := discovery.ServiceTypeWebSocketOnly
		if cfg.tcpEnabled {
			serviceType = discovery.ServiceTypeTCP
		}
		go advertise(ctx, cfg, l, serviceType, cfg.wsPort, "transport=websocket")
	}

	return ready
}

func advertise(ctx context.Context, cfg *appConfig, l *slog.Logger, serviceType string, port int, meta string) {
	cleanup, err := discovery.Advertise(ctx, discovery.Config{Enabled: cfg.mdnsEnable, Name: cfg.mdnsName}, serviceType, port, []string{meta, "version=" + version})
	if err != nil {
		l.Warn("mdns_start_failed", "error", err)
		return
	}
	l.Info("mdns_started", "service", serviceType, "port", port)
	go func() { <-ctx.Done(); cleanup() }()
}
