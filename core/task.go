package core

import (
	"strconv"
	"time"
)

// TaskID identifies a task slot. It equals the slot index and is stable
// across every incarnation spawned into that slot.
type TaskID int

// MainTaskID is the slot reserved for the goroutine driving the run loop.
const MainTaskID TaskID = 0

func (id TaskID) String() string {
	return "task-" + strconv.Itoa(int(id))
}

// =============================================================================
// TaskState: Slot lifecycle
// =============================================================================

type TaskState int

const (
	// TaskAvailable: slot is free and not runnable
	TaskAvailable TaskState = iota

	// TaskReady: fabricated or suspended, eligible to run
	TaskReady

	// TaskRunning: the current task. Exactly one slot holds this state.
	TaskRunning
)

func (s TaskState) String() string {
	switch s {
	case TaskAvailable:
		return "available"
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	default:
		return "unknown"
	}
}

// =============================================================================
// Task: One slot of the pool
// =============================================================================

// Task is one schedulable slot: a private stack, a state tag and the saved
// execution context. Slots are allocated once and recycled, never freed.
type Task struct {
	id    TaskID
	stack *Stack
	state TaskState
	ctx   Context

	// Per-incarnation bookkeeping
	incarnation uint64
	name        string
	yields      int
	spawnedAt   time.Time
	panicked    bool
}

func newTask(id TaskID, stackSize int) (*Task, error) {
	stack, err := NewStack(stackSize)
	if err != nil {
		return nil, err
	}
	return &Task{id: id, stack: stack, state: TaskAvailable}, nil
}

// SlotInfo is a point-in-time view of a task slot.
type SlotInfo struct {
	ID          TaskID
	State       TaskState
	Incarnation uint64
	Name        string
	Yields      int
}

func (t *Task) info() SlotInfo {
	return SlotInfo{
		ID:          t.id,
		State:       t.state,
		Incarnation: t.incarnation,
		Name:        t.name,
		Yields:      t.yields,
	}
}
