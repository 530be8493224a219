package core

import (
	"fmt"
	"io"
	"os"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task body panics. The runtime recovers the
// panic, reports it here, and retires the task as if the body had returned.
//
// Handlers run on the panicking task's goroutine while it is still the
// current task.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - runtimeName: The name of the runtime owning the task
	// - id: The slot of the panicked task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(runtimeName string, id TaskID, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that writes to stderr,
// keeping task output on stdout clean.
type DefaultPanicHandler struct {
	// Out receives the report. Defaults to os.Stderr.
	Out io.Writer
}

// HandlePanic prints panic information to Out.
func (h *DefaultPanicHandler) HandlePanic(runtimeName string, id TaskID, panicInfo any, stackTrace []byte) {
	out := h.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "[Runtime %s / %s] Panic: %v\nStack trace:\n%s",
		runtimeName, id, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting runtime metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from the running task and must not yield.
type Metrics interface {
	// RecordSpawn records that a task was spawned into a slot.
	RecordSpawn(runtimeName string)

	// RecordSwitch records one context switch.
	RecordSwitch(runtimeName string)

	// RecordTaskCompleted records a task body finishing.
	//
	// Parameters:
	// - runtimeName: The name of the runtime
	// - lifetime: Time from spawn to completion
	// - yields: Number of voluntary yields the incarnation made
	RecordTaskCompleted(runtimeName string, lifetime time.Duration, yields int)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(runtimeName string, panicInfo any)

	// RecordSpawnRejected records that a spawn was rejected.
	//
	// Parameters:
	// - runtimeName: The name of the runtime
	// - reason: Why the spawn was rejected
	RecordSpawnRejected(runtimeName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordSpawn is a no-op.
func (m *NilMetrics) RecordSpawn(runtimeName string) {}

// RecordSwitch is a no-op.
func (m *NilMetrics) RecordSwitch(runtimeName string) {}

// RecordTaskCompleted is a no-op.
func (m *NilMetrics) RecordTaskCompleted(runtimeName string, lifetime time.Duration, yields int) {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(runtimeName string, panicInfo any) {}

// RecordSpawnRejected is a no-op.
func (m *NilMetrics) RecordSpawnRejected(runtimeName string, reason string) {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected spawns
// =============================================================================

// RejectedTaskHandler is called when a spawn is rejected because the pool
// has no available slot or the body is nil. Spawn still returns the error.
type RejectedTaskHandler interface {
	// HandleRejectedTask is called when a spawn is rejected.
	//
	// Parameters:
	// - runtimeName: The name of the runtime
	// - reason: Why the task was rejected (e.g., "pool exhausted")
	HandleRejectedTask(runtimeName string, reason string)
}

// DefaultRejectedTaskHandler ignores rejections; the caller sees the error.
type DefaultRejectedTaskHandler struct{}

// HandleRejectedTask is a no-op.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(runtimeName string, reason string) {}

// =============================================================================
// RuntimeConfig: Configuration for Runtime
// =============================================================================

// RuntimeConfig holds configuration options for Runtime.
// All handlers are optional; if not provided, default implementations will be used.
type RuntimeConfig struct {
	// Name labels the runtime in logs and metrics. Defaults to a prefix of its ID.
	Name string

	// StackSize is the stack buffer size of every slot in bytes. Defaults to DefaultStackSize.
	StackSize int

	// HistoryCapacity bounds the finished-incarnation history. Defaults to 100.
	HistoryCapacity int

	// Logger receives lifecycle events. Defaults to NoOpLogger.
	Logger Logger

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record runtime metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a spawn is rejected. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler

	// Exit terminates the process once Run has no more work. Defaults to os.Exit.
	Exit func(code int)
}

// DefaultRuntimeConfig returns a config with default handlers.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		StackSize:           DefaultStackSize,
		HistoryCapacity:     defaultTaskHistoryCapacity,
		Logger:              NewNoOpLogger(),
		PanicHandler:        &DefaultPanicHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
		Exit:                os.Exit,
	}
}

// withDefaults returns a copy of c with every unset field defaulted.
func (c *RuntimeConfig) withDefaults() RuntimeConfig {
	d := DefaultRuntimeConfig()
	if c == nil {
		return *d
	}
	out := *c
	if out.StackSize == 0 {
		out.StackSize = d.StackSize
	}
	if out.HistoryCapacity == 0 {
		out.HistoryCapacity = d.HistoryCapacity
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	if out.PanicHandler == nil {
		out.PanicHandler = d.PanicHandler
	}
	if out.Metrics == nil {
		out.Metrics = d.Metrics
	}
	if out.RejectedTaskHandler == nil {
		out.RejectedTaskHandler = d.RejectedTaskHandler
	}
	if out.Exit == nil {
		out.Exit = d.Exit
	}
	return out
}
