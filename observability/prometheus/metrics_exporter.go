package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-green-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	LifetimeBuckets []float64
	YieldBuckets    []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	spawnTotal        *prom.CounterVec
	spawnRejected     *prom.CounterVec
	switchTotal       *prom.CounterVec
	taskPanicTotal    *prom.CounterVec
	taskLifetime      *prom.HistogramVec
	taskYieldsPerTask *prom.HistogramVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "greenrunner"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	lifetimeBuckets := opts.LifetimeBuckets
	if len(lifetimeBuckets) == 0 {
		lifetimeBuckets = prom.DefBuckets
	}
	yieldBuckets := opts.YieldBuckets
	if len(yieldBuckets) == 0 {
		yieldBuckets = prom.ExponentialBuckets(1, 4, 8)
	}

	spawnVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_spawn_total",
		Help:      "Total number of tasks spawned.",
	}, []string{"runtime"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_spawn_rejected_total",
		Help:      "Total number of rejected spawns.",
	}, []string{"runtime", "reason"})
	switchVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "context_switch_total",
		Help:      "Total number of context switches.",
	}, []string{"runtime"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"runtime"})
	lifetimeVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_lifetime_seconds",
		Help:      "Time from spawn to completion in seconds.",
		Buckets:   lifetimeBuckets,
	}, []string{"runtime"})
	yieldsVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_yields",
		Help:      "Voluntary yields per finished task.",
		Buckets:   yieldBuckets,
	}, []string{"runtime"})

	var err error
	if spawnVec, err = registerCollector(reg, spawnVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if switchVec, err = registerCollector(reg, switchVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if lifetimeVec, err = registerCollector(reg, lifetimeVec); err != nil {
		return nil, err
	}
	if yieldsVec, err = registerCollector(reg, yieldsVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		spawnTotal:        spawnVec,
		spawnRejected:     rejectedVec,
		switchTotal:       switchVec,
		taskPanicTotal:    panicVec,
		taskLifetime:      lifetimeVec,
		taskYieldsPerTask: yieldsVec,
	}, nil
}

// RecordSpawn records a spawned task.
func (m *MetricsExporter) RecordSpawn(runtimeName string) {
	if m == nil {
		return
	}
	m.spawnTotal.WithLabelValues(normalizeLabel(runtimeName, "unknown")).Inc()
}

// RecordSwitch records a context switch.
func (m *MetricsExporter) RecordSwitch(runtimeName string) {
	if m == nil {
		return
	}
	m.switchTotal.WithLabelValues(normalizeLabel(runtimeName, "unknown")).Inc()
}

// RecordTaskCompleted records task lifetime and yield count.
func (m *MetricsExporter) RecordTaskCompleted(runtimeName string, lifetime time.Duration, yields int) {
	if m == nil {
		return
	}
	name := normalizeLabel(runtimeName, "unknown")
	m.taskLifetime.WithLabelValues(name).Observe(lifetime.Seconds())
	m.taskYieldsPerTask.WithLabelValues(name).Observe(float64(yields))
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(runtimeName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(runtimeName, "unknown")).Inc()
}

// RecordSpawnRejected records spawn rejection events.
func (m *MetricsExporter) RecordSpawnRejected(runtimeName string, reason string) {
	if m == nil {
		return
	}
	m.spawnRejected.WithLabelValues(normalizeLabel(runtimeName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
