package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

type Config struct {
	Enabled         bool
	CollectInterval time.Duration
}

type Metrics struct {
	registry *prometheus.Registry

	MessagesCounter  *prometheus.CounterVec
	InProgressGauge  prometheus.Gauge
	RelayDuration    prometheus.Histogram
	MemoryUsageGauge *prometheus.GaugeVec
	CpuUsageGauge    *prometheus.GaugeVec

	virtualMemory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	cpuPercent        func(ctx context.Context) ([]float64, error)
	collectorInterval time.Duration
	logger            *slog.Logger
}

// New registers the collectors on a private registry.
func New(cfg Config) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_connector_messages_total",
				Help: "Total number of messages processed, by outcome.",
			},
			[]string{"outcome"},
		),
		InProgressGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sms_connector_in_progress_tasks",
				Help: "Number of messages being forwarded.",
			},
		),
		RelayDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sms_connector_relay_duration_seconds",
				Help:    "Duration of relay calls.",
				Buckets: prometheus.DefBuckets,
			},
		),
		MemoryUsageGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sms_connector_memory_usage_bytes",
				Help: "Host memory usage.",
			},
			[]string{"type"},
		),
		CpuUsageGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sms_connector_cpu_usage_percent",
				Help: "CPU usage percentage.",
			},
			[]string{"cpu"},
		),
		virtualMemory: mem.VirtualMemoryWithContext,
		cpuPercent: func(ctx context.Context) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 0, true)
		},
		collectorInterval: cfg.CollectInterval,
		logger:            slog.With("component", "metrics"),
	}

	if m.collectorInterval <= 0 {
		m.collectorInterval = 15 * time.Second
	}

	m.registry.MustRegister(
		m.MessagesCounter,
		m.InProgressGauge,
		m.RelayDuration,
		m.MemoryUsageGauge,
		m.CpuUsageGauge,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TaskStarted() {
	m.InProgressGauge.Inc()
}

func (m *Metrics) TaskFinished(outcome string) {
	m.InProgressGauge.Dec()
	m.MessagesCounter.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRelay(d time.Duration) {
	m.RelayDuration.Observe(d.Seconds())
}

// CollectMemoryAndCpu samples host memory and per-cpu usage once.
func (m *Metrics) CollectMemoryAndCpu(ctx context.Context) {
	if vm, err := m.virtualMemory(ctx); err != nil {
		m.logger.Warn(fmt.Sprintf("failed to read memory usage: %v", err))
	} else {
		m.MemoryUsageGauge.WithLabelValues("total").Set(float64(vm.Total))
		m.MemoryUsageGauge.WithLabelValues("used").Set(float64(vm.Used))
		m.MemoryUsageGauge.WithLabelValues("available").Set(float64(vm.Available))
	}

	percents, err := m.cpuPercent(ctx)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("failed to read cpu usage: %v", err))
		return
	}
	for i, p := range percents {
		m.CpuUsageGauge.WithLabelValues(strconv.Itoa(i)).Set(p)
	}
}

// RunCollector samples host usage until ctx is done.
func (m *Metrics) RunCollector(ctx context.Context) {
	ticker := time.NewTicker(m.collectorInterval)
	defer ticker.Stop()

	m.CollectMemoryAndCpu(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CollectMemoryAndCpu(ctx)
		}
	}
}
