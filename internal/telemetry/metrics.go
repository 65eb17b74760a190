package telemetry

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
)

// Metrics is the bridge's Prometheus registry plus the counters/gauges named
// in SPEC_FULL.md §2: connected players, tick duration, chunk generation
// queue depth, light-propagation queue size. Grounded in
// runZeroInc-sockstats's and runZeroInc-conniver's pkg/exporter/exporter.go,
// which each register a custom prometheus.Collector rather than using only
// the default client-side instrumentation helpers.
type Metrics struct {
	registry *prometheus.Registry

	playersConnected prometheus.Gauge
	tickDuration     prometheus.Histogram
	chunkQueueDepth  prometheus.Gauge
	lightQueueSize   prometheus.Gauge
	packetsTotal     *prometheus.CounterVec

	host *hostCollector
}

// New builds a Metrics instance with every series registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		playersConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bridge",
			Name:      "players_connected",
			Help:      "Number of players currently connected.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bridge",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one 20Hz tick loop iteration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		chunkQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bridge",
			Name:      "chunk_worker_queue_depth",
			Help:      "Pending chunk-generation requests.",
		}),
		lightQueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bridge",
			Name:      "light_propagation_queue_size",
			Help:      "Cells awaiting a light-propagation BFS step.",
		}),
		packetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Name:      "packets_total",
			Help:      "Canonical packets processed, by direction.",
		}, []string{"direction"}),
		host: newHostCollector(),
	}
	reg.MustRegister(m.playersConnected, m.tickDuration, m.chunkQueueDepth, m.lightQueueSize, m.packetsTotal, m.host)
	return m
}

// SetPlayersConnected updates the connected-player gauge.
func (m *Metrics) SetPlayersConnected(n int) { m.playersConnected.Set(float64(n)) }

// ObserveTick records one tick loop iteration's duration.
func (m *Metrics) ObserveTick(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }

// SetChunkQueueDepth reports the worker pool's current backlog.
func (m *Metrics) SetChunkQueueDepth(n int) { m.chunkQueueDepth.Set(float64(n)) }

// SetLightQueueSize reports the light engine's current BFS frontier size.
func (m *Metrics) SetLightQueueSize(n int) { m.lightQueueSize.Set(float64(n)) }

// IncPackets increments the packet counter for a direction ("inbound" or
// "outbound").
func (m *Metrics) IncPackets(direction string) { m.packetsTotal.WithLabelValues(direction).Inc() }

// Handler returns the net/http handler serving GET /metrics (SPEC_FULL.md
// §6: "Metrics endpoint").
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// hostCollector feeds process RSS/CPU into the metrics endpoint so operators
// can correlate tick time with host load (SPEC_FULL.md §2 "Host metrics"),
// grounded in shirou/gopsutil/v3 as used by nishisan-dev/n-backup's go.mod.
type hostCollector struct {
	rssDesc *prometheus.Desc
	cpuDesc *prometheus.Desc

	mu   sync.Mutex
	proc *process.Process
}

func newHostCollector() *hostCollector {
	h := &hostCollector{
		rssDesc: prometheus.NewDesc("bridge_process_rss_bytes", "Resident set size of this process.", nil, nil),
		cpuDesc: prometheus.NewDesc("bridge_process_cpu_percent", "CPU utilization of this process.", nil, nil),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		h.proc = p
	}
	return h
}

func (h *hostCollector) Describe(descs chan<- *prometheus.Desc) {
	descs <- h.rssDesc
	descs <- h.cpuDesc
}

func (h *hostCollector) Collect(metrics chan<- prometheus.Metric) {
	h.mu.Lock()
	proc := h.proc
	h.mu.Unlock()
	if proc == nil {
		return
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		metrics <- prometheus.MustNewConstMetric(h.rssDesc, prometheus.GaugeValue, float64(mem.RSS))
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		metrics <- prometheus.MustNewConstMetric(h.cpuDesc, prometheus.GaugeValue, cpu)
	}
}
