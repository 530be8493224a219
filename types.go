package greenrunner

import "github.com/Swind/go-green-runner/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the greenrunner package for most use cases.

// Runtime is the cooperative scheduler over a fixed pool of task slots
type Runtime = core.Runtime

// RuntimeConfig holds handlers and sizes for a Runtime
type RuntimeConfig = core.RuntimeConfig

// RuntimeStats is a snapshot of runtime state
type RuntimeStats = core.RuntimeStats

// TaskID identifies a task slot
type TaskID = core.TaskID

// TaskState is the lifecycle state of a slot
type TaskState = core.TaskState

// SlotInfo is a snapshot of one slot
type SlotInfo = core.SlotInfo

// IncarnationRecord describes one finished task
type IncarnationRecord = core.IncarnationRecord

// Logger, PanicHandler and Metrics are the pluggable runtime handlers
type (
	Logger              = core.Logger
	PanicHandler        = core.PanicHandler
	Metrics             = core.Metrics
	RejectedTaskHandler = core.RejectedTaskHandler
)

// State constants
const (
	TaskAvailable TaskState = core.TaskAvailable
	TaskReady     TaskState = core.TaskReady
	TaskRunning   TaskState = core.TaskRunning
)

// Errors
var (
	ErrPoolExhausted    = core.ErrPoolExhausted
	ErrNilTask          = core.ErrNilTask
	ErrAlreadyInstalled = core.ErrAlreadyInstalled
	ErrNoRuntime        = core.ErrNoRuntime
)

// DefaultRuntimeConfig returns a config with default handlers
var DefaultRuntimeConfig = core.DefaultRuntimeConfig

// NewRuntime creates a runtime that is not installed as the global handle.
// Task bodies must capture it to yield.
func NewRuntime(capacity int) (*Runtime, error) {
	return core.NewRuntime(capacity)
}

// NewRuntimeWithConfig is NewRuntime with custom handlers and sizes.
func NewRuntimeWithConfig(capacity int, config *RuntimeConfig) (*Runtime, error) {
	return core.NewRuntimeWithConfig(capacity, config)
}
