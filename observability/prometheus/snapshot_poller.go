package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-green-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// RuntimeSnapshotProvider provides current runtime stats snapshots.
// *core.Runtime implements it and is safe to poll while its loop runs.
type RuntimeSnapshotProvider interface {
	Stats() core.RuntimeStats
}

// SnapshotPoller periodically exports runtime Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	runtimesMu sync.RWMutex
	runtimes   map[string]RuntimeSnapshotProvider

	slots     *prom.GaugeVec
	capacity  *prom.GaugeVec
	current   *prom.GaugeVec
	completed *prom.GaugeVec
	switches  *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	slots := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greenrunner",
		Name:      "runtime_slots",
		Help:      "Number of task slots per state.",
	}, []string{"runtime", "state"})
	capacity := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greenrunner",
		Name:      "runtime_capacity",
		Help:      "Fixed number of task slots, including the main slot.",
	}, []string{"runtime"})
	current := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greenrunner",
		Name:      "runtime_current_slot",
		Help:      "Index of the Running slot.",
	}, []string{"runtime"})
	completed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greenrunner",
		Name:      "runtime_completed_tasks",
		Help:      "Runtime completed task count snapshot.",
	}, []string{"runtime"})
	switches := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greenrunner",
		Name:      "runtime_switches",
		Help:      "Runtime context switch count snapshot.",
	}, []string{"runtime"})

	var err error
	if slots, err = registerCollector(reg, slots); err != nil {
		return nil, err
	}
	if capacity, err = registerCollector(reg, capacity); err != nil {
		return nil, err
	}
	if current, err = registerCollector(reg, current); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if switches, err = registerCollector(reg, switches); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:  interval,
		runtimes:  make(map[string]RuntimeSnapshotProvider),
		slots:     slots,
		capacity:  capacity,
		current:   current,
		completed: completed,
		switches:  switches,
	}, nil
}

// AddRuntime adds or replaces a runtime snapshot provider by name.
func (p *SnapshotPoller) AddRuntime(name string, provider RuntimeSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "runtime")
	p.runtimesMu.Lock()
	p.runtimes[name] = provider
	p.runtimesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

// Collect exports one snapshot of every runtime immediately.
func (p *SnapshotPoller) Collect() {
	if p == nil {
		return
	}
	p.collectOnce()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.runtimesMu.RLock()
	defer p.runtimesMu.RUnlock()

	for name, provider := range p.runtimes {
		stats := provider.Stats()
		p.slots.WithLabelValues(name, core.TaskAvailable.String()).Set(float64(stats.Available))
		p.slots.WithLabelValues(name, core.TaskReady.String()).Set(float64(stats.Ready))
		p.slots.WithLabelValues(name, core.TaskRunning.String()).Set(float64(stats.Running))
		p.capacity.WithLabelValues(name).Set(float64(stats.Capacity))
		p.current.WithLabelValues(name).Set(float64(stats.Current))
		p.completed.WithLabelValues(name).Set(float64(stats.Completed))
		p.switches.WithLabelValues(name).Set(float64(stats.Switches))
	}
}
