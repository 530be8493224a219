package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Swind/go-green-runner/core"
	zlog "github.com/Swind/go-green-runner/logging/zerolog"
	obs "github.com/Swind/go-green-runner/observability/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// demoOptions is the resolved configuration of one demo run.
type demoOptions struct {
	Capacity    int
	StackSize   int
	Tasks       []int
	MetricsAddr string
	MetricsHold time.Duration
}

func newDemoCommand(v *viper.Viper) *cobra.Command {
	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run counting tasks that take turns on one runtime",
		Long: `demo spawns one counting task per entry of --tasks. Each task prints its
counter and yields after every step, so the output interleaves in slot order
until every task has finished.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := demoOptionsFrom(v)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd.ErrOrStderr(), v.GetString("log-level"), v.GetString("log-format"))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, err = runDemo(ctx, cmd.OutOrStdout(), log, opts)
			return err
		},
	}

	demoCmd.Flags().Int("capacity", 10, "number of task slots, including the main slot")
	demoCmd.Flags().Int("stack-size", core.DefaultStackSize, "bytes reserved for each task stack")
	demoCmd.Flags().String("tasks", "10,15", "comma separated iteration count of each task")
	demoCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	demoCmd.Flags().Duration("metrics-hold", 0, "keep serving metrics this long after the tasks finish")
	return demoCmd
}

func demoOptionsFrom(v *viper.Viper) (demoOptions, error) {
	tasks, err := parseTasks(v.GetString("tasks"))
	if err != nil {
		return demoOptions{}, err
	}
	return demoOptions{
		Capacity:    v.GetInt("capacity"),
		StackSize:   v.GetInt("stack-size"),
		Tasks:       tasks,
		MetricsAddr: v.GetString("metrics-addr"),
		MetricsHold: v.GetDuration("metrics-hold"),
	}, nil
}

// parseTasks parses "10,15" into iteration counts.
func parseTasks(s string) ([]int, error) {
	var tasks []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid task iteration count %q", part)
		}
		tasks = append(tasks, n)
	}
	return tasks, nil
}

// runDemo spawns the counting tasks and drives the loop until all of them
// have finished. Task output goes to out.
func runDemo(ctx context.Context, out io.Writer, log zerolog.Logger, opts demoOptions) (core.RuntimeStats, error) {
	config := demoRuntimeConfig(log, opts)

	var (
		reg    *prometheus.Registry
		poller *obs.SnapshotPoller
	)
	if opts.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		exporter, err := obs.NewMetricsExporter("", reg, obs.ExporterOptions{})
		if err != nil {
			return core.RuntimeStats{}, err
		}
		config.Metrics = exporter
		if poller, err = obs.NewSnapshotPoller(reg, 250*time.Millisecond); err != nil {
			return core.RuntimeStats{}, err
		}
	}

	rt, err := core.NewRuntimeWithConfig(opts.Capacity, config)
	if err != nil {
		return core.RuntimeStats{}, err
	}

	if reg != nil {
		poller.AddRuntime(rt.Name(), rt)
		poller.Start(ctx)
		defer poller.Stop()

		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", opts.MetricsAddr).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", opts.MetricsAddr).Msg("serving metrics")
	}

	for i, iterations := range opts.Tasks {
		routine := i + 1
		if _, err := rt.SpawnNamed(fmt.Sprintf("counter-%d", routine), counter(rt, out, routine, iterations)); err != nil {
			return rt.Stats(), fmt.Errorf("spawn routine %d: %w", routine, err)
		}
	}

	rt.Loop()

	stats := rt.Stats()
	if poller != nil {
		poller.Collect()
		hold(ctx, opts.MetricsHold)
	}
	log.Info().
		Int64("completed", stats.Completed).
		Int64("switches", stats.Switches).
		Int64("panicked", stats.Panicked).
		Msg("demo finished")
	return stats, nil
}

// demoRuntimeConfig routes runtime logs and panic reports through log, so
// nothing but task output reaches stdout.
func demoRuntimeConfig(log zerolog.Logger, opts demoOptions) *core.RuntimeConfig {
	config := core.DefaultRuntimeConfig()
	config.Name = "demo"
	config.StackSize = opts.StackSize
	config.Logger = zlog.New(log)
	config.PanicHandler = zlog.NewPanicHandler(log)
	return config
}

func counter(rt *core.Runtime, out io.Writer, routine, iterations int) func() {
	return func() {
		fmt.Fprintf(out, "%d STARTING\n", routine)
		for i := 0; i < iterations; i++ {
			fmt.Fprintf(out, "routine: %d counter: %d\n", routine, i)
			rt.Yield()
		}
		fmt.Fprintf(out, "%d FINISHED\n", routine)
	}
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
