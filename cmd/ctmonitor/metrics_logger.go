package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kstaniek/ctmonitor/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"cti_rx", snap.CTIRx,
					"cti_tx", snap.CTITx,
					"failovers", snap.Failovers,
					"decode_errors", snap.DecodeErrors,
					"client_tx", snap.ClientTx,
					"hub_drops", snap.HubDrops,
					"hub_kicks", snap.HubKicks,
					"hub_rejects", snap.HubRejects,
					"hub_clients", snap.HubClients,
					"agents_tracked", snap.AgentsTracked,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
