package core

import "time"

// IncarnationRecord captures one finished incarnation of a task slot.
type IncarnationRecord struct {
	TaskID      TaskID
	Incarnation uint64
	Name        string
	RuntimeName string
	Yields      int
	SpawnedAt   time.Time
	FinishedAt  time.Time
	Lifetime    time.Duration
	Panicked    bool
}

// RuntimeStats represents observability state for a runtime.
type RuntimeStats struct {
	ID        string
	Name      string
	Capacity  int
	StackSize int
	Current   TaskID

	Available int
	Ready     int
	Running   int

	Spawned   int64
	Completed int64
	Panicked  int64
	Rejected  int64
	Switches  int64

	LastTaskName string
	LastTaskAt   time.Time
}
