package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/ctmonitor/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	CTIRxMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cti_rx_messages_total",
		Help: "Total CTI messages received from the upstream peripheral gateway, by message type.",
	}, []string{"type"})
	CTITxMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cti_tx_messages_total",
		Help: "Total CTI messages sent to the upstream peripheral gateway, by message type.",
	}, []string{"type"})
	CTIFailovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cti_failovers_total",
		Help: "Total times the session engine flipped to the opposite redundant side.",
	})
	CTIDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cti_decode_errors_total",
		Help: "Total malformed or truncated CTI messages rejected by the codec.",
	})
	ClientTxMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_tx_messages_total",
		Help: "Total agent-state snapshots sent to downstream clients.",
	})
	HubDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_dropped_frames_total",
		Help: "Total agent-state broadcasts dropped by the hub due to slow clients.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_kicked_clients_total",
		Help: "Total clients disconnected due to backpressure kick policy.",
	})
	HubRejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_rejected_clients_total",
		Help: "Total client connection attempts rejected (e.g., max-clients).",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_active_clients",
		Help: "Current number of active connected downstream clients.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_broadcast_fanout",
		Help: "Number of clients targeted in the most recent broadcast.",
	})
	HubQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_queue_depth_max",
		Help: "Observed max queued broadcasts among clients since last sample window.",
	})
	HubQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_queue_depth_avg",
		Help: "Approximate average queued broadcasts per client in last sample.",
	})
	AgentsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agents_tracked",
		Help: "Current number of agents held in the projection map.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrCTIRead     = "cti_read"
	ErrCTIWrite    = "cti_write"
	ErrCTIConnect  = "cti_connect"
	ErrClientRead  = "client_read"
	ErrClientWrite = "client_write"
	ErrHandshake   = "handshake"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready on
// addr, using its own mux.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for periodic logging (avoid scraping in-process).
var (
	localCTIRx      uint64
	localCTITx      uint64
	localFailovers  uint64
	localDecode     uint64
	localClientTx   uint64
	localHubDrop    uint64
	localHubKick    uint64
	localHubReject  uint64
	localErrors     uint64
	localHubClients uint64
	localFanout     uint64
	localQDMax      uint64
	localQDAvg      uint64
	localAgents     uint64
)

// Snapshot is a cheap copy of local counters, intended for periodic logging.
type Snapshot struct {
	CTIRx         uint64
	CTITx         uint64
	Failovers     uint64
	DecodeErrors  uint64
	ClientTx      uint64
	HubDrops      uint64
	HubKicks      uint64
	HubRejects    uint64
	Errors        uint64
	HubClients    uint64
	Fanout        uint64
	QueueDepthMax uint64
	QueueDepthAvg uint64
	AgentsTracked uint64
}

func Snap() Snapshot {
	return Snapshot{
		CTIRx:         atomic.LoadUint64(&localCTIRx),
		CTITx:         atomic.LoadUint64(&localCTITx),
		Failovers:     atomic.LoadUint64(&localFailovers),
		DecodeErrors:  atomic.LoadUint64(&localDecode),
		ClientTx:      atomic.LoadUint64(&localClientTx),
		HubDrops:      atomic.LoadUint64(&localHubDrop),
		HubKicks:      atomic.LoadUint64(&localHubKick),
		HubRejects:    atomic.LoadUint64(&localHubReject),
		Errors:        atomic.LoadUint64(&localErrors),
		HubClients:    atomic.LoadUint64(&localHubClients),
		Fanout:        atomic.LoadUint64(&localFanout),
		QueueDepthMax: atomic.LoadUint64(&localQDMax),
		QueueDepthAvg: atomic.LoadUint64(&localQDAvg),
		AgentsTracked: atomic.LoadUint64(&localAgents),
	}
}

func IncCTIRx(msgType string) {
	CTIRxMessages.WithLabelValues(msgType).Inc()
	atomic.AddUint64(&localCTIRx, 1)
}

func IncCTITx(msgType string) {
	CTITxMessages.WithLabelValues(msgType).Inc()
	atomic.AddUint64(&localCTITx, 1)
}

func IncFailover() {
	CTIFailovers.Inc()
	atomic.AddUint64(&localFailovers, 1)
}

func IncDecodeError() {
	CTIDecodeErrors.Inc()
	atomic.AddUint64(&localDecode, 1)
}

func IncClientTx() {
	ClientTxMessages.Inc()
	atomic.AddUint64(&localClientTx, 1)
}

func IncHubDrop() {
	HubDroppedFrames.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func IncHubReject() {
	HubRejectedClients.Inc()
	atomic.AddUint64(&localHubReject, 1)
}

func SetHubClients(n int) {
	HubActiveClients.Set(float64(n))
	atomic.StoreUint64(&localHubClients, uint64(n))
}

func SetBroadcastFanout(n int) {
	HubBroadcastFanout.Set(float64(n))
	atomic.StoreUint64(&localFanout, uint64(n))
}

func SetAgentsTracked(n int) {
	AgentsTracked.Set(float64(n))
	atomic.StoreUint64(&localAgents, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// SetQueueDepth records a snapshot of max and avg queue depth.
func SetQueueDepth(max, avg int) {
	HubQueueDepthMax.Set(float64(max))
	HubQueueDepthAvg.Set(float64(avg))
	atomic.StoreUint64(&localQDMax, uint64(max))
	atomic.StoreUint64(&localQDAvg, uint64(avg))
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{
		ErrCTIRead, ErrCTIWrite, ErrCTIConnect, ErrClientRead, ErrClientWrite, ErrHandshake,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
