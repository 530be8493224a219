package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-green-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runtimeStub struct {
	stats core.RuntimeStats
}

func (s runtimeStub) Stats() core.RuntimeStats { return s.stats }

func TestSnapshotPoller_CollectsRuntimeStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	require.NoError(t, err)

	poller.AddRuntime("rt-a", runtimeStub{stats: core.RuntimeStats{
		Capacity:  10,
		Current:   3,
		Available: 6,
		Ready:     3,
		Running:   1,
		Completed: 12,
		Switches:  40,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		ready := testutil.ToFloat64(poller.slots.WithLabelValues("rt-a", "ready"))
		switches := testutil.ToFloat64(poller.switches.WithLabelValues("rt-a"))
		return ready == 3 && switches == 40
	})

	assert.Equal(t, float64(6), testutil.ToFloat64(poller.slots.WithLabelValues("rt-a", "available")))
	assert.Equal(t, float64(1), testutil.ToFloat64(poller.slots.WithLabelValues("rt-a", "running")))
	assert.Equal(t, float64(10), testutil.ToFloat64(poller.capacity.WithLabelValues("rt-a")))
	assert.Equal(t, float64(3), testutil.ToFloat64(poller.current.WithLabelValues("rt-a")))
	assert.Equal(t, float64(12), testutil.ToFloat64(poller.completed.WithLabelValues("rt-a")))
}

func TestSnapshotPoller_LiveRuntime(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, time.Hour)
	require.NoError(t, err)

	rt, err := core.NewRuntimeWithConfig(3, &core.RuntimeConfig{Name: "live", StackSize: 4096})
	require.NoError(t, err)
	poller.AddRuntime(rt.Name(), rt)

	for i := 0; i < 2; i++ {
		rt.MustSpawn(func() { rt.Yield() })
	}
	poller.Collect()
	assert.Equal(t, float64(2), testutil.ToFloat64(poller.slots.WithLabelValues("live", "ready")))

	rt.Loop()
	poller.Collect()
	assert.Equal(t, float64(2), testutil.ToFloat64(poller.slots.WithLabelValues("live", "available")))
	assert.Equal(t, float64(2), testutil.ToFloat64(poller.completed.WithLabelValues("live")))
	assert.Equal(t, float64(0), testutil.ToFloat64(poller.current.WithLabelValues("live")))
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
