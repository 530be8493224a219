package prometheus

import (
	"testing"
	"time"

	"github.com/Swind/go-green-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("greenrunner", reg, ExporterOptions{})
	require.NoError(t, err)

	exporter.RecordSpawn("rt-a")
	exporter.RecordSpawn("rt-a")
	exporter.RecordSwitch("rt-a")
	exporter.RecordTaskPanic("rt-a", "panic")
	exporter.RecordSpawnRejected("rt-a", "pool exhausted")
	exporter.RecordTaskCompleted("rt-a", 250*time.Millisecond, 4)

	assert.Equal(t, float64(2), testutil.ToFloat64(exporter.spawnTotal.WithLabelValues("rt-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(exporter.switchTotal.WithLabelValues("rt-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("rt-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(exporter.spawnRejected.WithLabelValues("rt-a", "pool exhausted")))

	count, err := histogramSampleCount(exporter.taskLifetime.WithLabelValues("rt-a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	count, err = histogramSampleCount(exporter.taskYieldsPerTask.WithLabelValues("rt-a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("greenrunner", reg, ExporterOptions{})
	require.NoError(t, err)
	second, err := NewMetricsExporter("greenrunner", reg, ExporterOptions{})
	require.NoError(t, err)

	first.RecordTaskPanic("rt-a", nil)
	second.RecordTaskPanic("rt-a", nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(first.taskPanicTotal.WithLabelValues("rt-a")))
}

func TestMetricsExporter_NilReceiver(t *testing.T) {
	var exporter *MetricsExporter
	assert.NotPanics(t, func() {
		exporter.RecordSpawn("rt")
		exporter.RecordSwitch("rt")
		exporter.RecordTaskCompleted("rt", time.Second, 1)
		exporter.RecordTaskPanic("rt", nil)
		exporter.RecordSpawnRejected("rt", "")
	})
}

// TestMetricsExporter_Runtime tests the exporter wired into a runtime
// Main test items:
// 1. Spawns, switches and completions are counted
// 2. A rejected spawn is labelled with its reason
func TestMetricsExporter_Runtime(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{})
	require.NoError(t, err)

	rt, err := core.NewRuntimeWithConfig(2, &core.RuntimeConfig{
		Name:      "wired",
		StackSize: 4096,
		Metrics:   exporter,
	})
	require.NoError(t, err)

	rt.MustSpawn(func() {
		rt.Yield()
		rt.Yield()
	})
	_, err = rt.Spawn(func() {})
	require.ErrorIs(t, err, core.ErrPoolExhausted)

	rt.Loop()

	assert.Equal(t, float64(1), testutil.ToFloat64(exporter.spawnTotal.WithLabelValues("wired")))
	assert.Equal(t, float64(1), testutil.ToFloat64(exporter.spawnRejected.WithLabelValues("wired", "pool exhausted")))
	// Two yields and one return: three switches in, three back to main.
	assert.Equal(t, float64(6), testutil.ToFloat64(exporter.switchTotal.WithLabelValues("wired")))
	assert.Equal(t, float64(rt.Stats().Switches), testutil.ToFloat64(exporter.switchTotal.WithLabelValues("wired")))

	count, err := histogramSampleCount(exporter.taskYieldsPerTask.WithLabelValues("wired"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
