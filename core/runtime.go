package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Runtime is a cooperative scheduler over a fixed pool of task slots.
//
// Slot 0 is the main task: whichever goroutine calls Loop or Run plays its
// role and starts out Running. Every other slot is spawned into by Spawn and
// runs until it calls Yield or returns. Exactly one slot is Running at any
// instant, and control moves between slots only inside Yield.
//
// Spawn, Yield, Loop and Run must be called from the logical thread of the
// runtime: the main task or a task body. Stats, Slots, Current and
// RecentIncarnations may be called from any goroutine.
type Runtime struct {
	id     string
	name   string
	config RuntimeConfig

	tasks   []*Task
	current TaskID

	// mu orders slot transitions against foreign readers of Stats and Slots.
	// Only one task ever writes, so it is never contended by the scheduler.
	mu sync.RWMutex

	history *incarnationHistory

	spawned   atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	rejected  atomic.Int64
	switches  atomic.Int64
}

// NewRuntime creates a runtime with capacity slots, including the main slot.
func NewRuntime(capacity int) (*Runtime, error) {
	return NewRuntimeWithConfig(capacity, DefaultRuntimeConfig())
}

// NewRuntimeWithConfig creates a runtime with capacity slots and the given config.
// Unset config fields fall back to DefaultRuntimeConfig.
func NewRuntimeWithConfig(capacity int, config *RuntimeConfig) (*Runtime, error) {
	if capacity < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	cfg := config.withDefaults()
	rt := &Runtime{
		id:      uuid.NewString(),
		config:  cfg,
		tasks:   make([]*Task, capacity),
		history: newIncarnationHistory(cfg.HistoryCapacity),
	}
	rt.name = cfg.Name
	if rt.name == "" {
		rt.name = "runtime-" + rt.id[:8]
	}

	for i := range rt.tasks {
		t, err := newTask(TaskID(i), cfg.StackSize)
		if err != nil {
			return nil, err
		}
		rt.tasks[i] = t
	}

	main := rt.tasks[MainTaskID]
	main.state = TaskRunning
	main.ctx = mainContext()
	main.name = "main"

	rt.config.Logger.Debug("runtime created",
		F("runtime", rt.name),
		F("id", rt.id),
		F("capacity", capacity),
		F("stack_size", cfg.StackSize))

	return rt, nil
}

// ID returns the unique identifier of the runtime instance.
func (rt *Runtime) ID() string {
	return rt.id
}

// Name returns the runtime's label used in logs and metrics.
func (rt *Runtime) Name() string {
	return rt.name
}

// Capacity returns the number of slots, including the main slot.
func (rt *Runtime) Capacity() int {
	return len(rt.tasks)
}

// Current returns the slot that is Running.
func (rt *Runtime) Current() TaskID {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.current
}

// =============================================================================
// Spawn
// =============================================================================

// Spawn fabricates a new task running body in the first Available slot and
// marks it Ready. The body does not run until the scheduler selects it.
//
// Returns ErrPoolExhausted if no slot is Available.
func (rt *Runtime) Spawn(body func()) (TaskID, error) {
	return rt.SpawnNamed("", body)
}

// SpawnNamed is Spawn with an explicit name for logs and history.
// An empty name falls back to the body's function name.
func (rt *Runtime) SpawnNamed(name string, body func()) (TaskID, error) {
	if body == nil {
		rt.reject("nil task")
		return 0, ErrNilTask
	}

	t := rt.findAvailable()
	if t == nil {
		rt.reject("pool exhausted")
		return 0, fmt.Errorf("%w: capacity %d", ErrPoolExhausted, len(rt.tasks))
	}

	sp := t.stack.fabricate(
		Word(body),
		func() { rt.start(t) },
		func() { rt.guard(t) },
	)

	rt.mu.Lock()
	t.ctx = newContext(sp)
	t.state = TaskReady
	t.incarnation++
	t.name = resolveTaskName(body, name)
	t.yields = 0
	t.panicked = false
	t.spawnedAt = time.Now()
	rt.mu.Unlock()

	rt.spawned.Add(1)
	rt.config.Metrics.RecordSpawn(rt.name)
	rt.config.Logger.Debug("task spawned",
		F("runtime", rt.name),
		F("task", t.id),
		F("name", t.name),
		F("incarnation", t.incarnation),
		F("sp", sp.Offset()))

	return t.id, nil
}

// MustSpawn is like Spawn but panics if the task cannot be spawned.
func (rt *Runtime) MustSpawn(body func()) TaskID {
	id, err := rt.Spawn(body)
	if err != nil {
		panic(err)
	}
	return id
}

func (rt *Runtime) findAvailable() *Task {
	for _, t := range rt.tasks[MainTaskID+1:] {
		if t.state == TaskAvailable {
			return t
		}
	}
	return nil
}

func (rt *Runtime) reject(reason string) {
	rt.rejected.Add(1)
	rt.config.Metrics.RecordSpawnRejected(rt.name, reason)
	rt.config.RejectedTaskHandler.HandleRejectedTask(rt.name, reason)
	rt.config.Logger.Warn("spawn rejected",
		F("runtime", rt.name),
		F("reason", reason),
		F("capacity", len(rt.tasks)))
}

// =============================================================================
// Scheduling
// =============================================================================

// Yield hands control to the next Ready slot in circular order after the
// current one. It returns false without switching when no other slot is
// Ready; otherwise it returns true once the caller is resumed.
//
// The demotion of the caller and the promotion of the next slot happen under
// one lock, so Stats always sees exactly one Running slot. A finished task
// leaves through exit instead, which frees its slot in the same step.
func (rt *Runtime) Yield() bool {
	cur := rt.current
	next, ok := rt.nextReady(cur)
	if !ok {
		return false
	}

	from, to := rt.tasks[cur], rt.tasks[next]

	rt.mu.Lock()
	from.state = TaskReady
	from.yields++
	to.state = TaskRunning
	rt.current = next
	rt.mu.Unlock()

	rt.switches.Add(1)
	rt.config.Metrics.RecordSwitch(rt.name)

	Switch(&from.ctx, &to.ctx)
	return true
}

// nextReady scans circularly from the slot after cur. Reaching cur again
// means no other slot is Ready.
func (rt *Runtime) nextReady(cur TaskID) (TaskID, bool) {
	n := TaskID(len(rt.tasks))
	for pos := (cur + 1) % n; pos != cur; pos = (pos + 1) % n {
		if rt.tasks[pos].state == TaskReady {
			return pos, true
		}
	}
	return 0, false
}

// Loop yields from the main task until no other slot is Ready and returns
// the number of switches it made. Every spawned task has finished when Loop
// returns, unless a task is still suspended and nothing can resume it, which
// cannot happen because only the main task ever waits outside the pool.
//
// Loop panics with ErrNotMainTask when called from a task body.
func (rt *Runtime) Loop() int {
	if cur := rt.current; cur != MainTaskID {
		panic(fmt.Errorf("%w: called from %s", ErrNotMainTask, cur))
	}

	started := time.Now()
	turns := 0
	for rt.Yield() {
		turns++
	}

	rt.config.Logger.Info("run loop finished",
		F("runtime", rt.name),
		F("turns", turns),
		F("completed", rt.completed.Load()),
		F("elapsed", time.Since(started)))
	return turns
}

// Run drives the run loop to completion and then terminates the process
// with exit status 0 through the configured Exit function. With the default
// os.Exit it never returns.
func (rt *Runtime) Run() {
	rt.Loop()
	rt.config.Exit(0)
}

// =============================================================================
// Introspection
// =============================================================================

// Stats returns a snapshot of the runtime state.
func (rt *Runtime) Stats() RuntimeStats {
	stats := RuntimeStats{
		ID:        rt.id,
		Name:      rt.name,
		Capacity:  len(rt.tasks),
		StackSize: rt.config.StackSize,
		Spawned:   rt.spawned.Load(),
		Completed: rt.completed.Load(),
		Panicked:  rt.panicked.Load(),
		Rejected:  rt.rejected.Load(),
		Switches:  rt.switches.Load(),
	}

	rt.mu.RLock()
	stats.Current = rt.current
	for _, t := range rt.tasks {
		switch t.state {
		case TaskAvailable:
			stats.Available++
		case TaskReady:
			stats.Ready++
		case TaskRunning:
			stats.Running++
		}
	}
	rt.mu.RUnlock()

	if last, ok := rt.history.Last(); ok {
		stats.LastTaskName = last.Name
		stats.LastTaskAt = last.FinishedAt
	}
	return stats
}

// Slots returns a snapshot of every slot in index order.
func (rt *Runtime) Slots() []SlotInfo {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	out := make([]SlotInfo, len(rt.tasks))
	for i, t := range rt.tasks {
		out[i] = t.info()
	}
	return out
}

// Slot returns a snapshot of one slot.
func (rt *Runtime) Slot(id TaskID) (SlotInfo, bool) {
	if id < 0 || int(id) >= len(rt.tasks) {
		return SlotInfo{}, false
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.tasks[id].info(), true
}

// RecentIncarnations returns up to limit finished incarnations, newest first.
// A limit <= 0 returns the whole retained history.
func (rt *Runtime) RecentIncarnations(limit int) []IncarnationRecord {
	return rt.history.Recent(limit)
}
