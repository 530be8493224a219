package core

import (
	"fmt"
	"runtime/debug"
	"time"
)

// start is the entry point of every fabricated frame. The body sits in the
// word at the stack pointer and the guard two words above it. The guard is
// deferred so it runs whether the body returns, panics, or exits its
// goroutine (runtime.Goexit, e.g. t.FailNow in a test).
func (rt *Runtime) start(t *Task) {
	sp := t.ctx.SP
	body, guard := sp.Load(0), sp.Load(2)

	defer guard()
	defer rt.recoverBody(t)
	body()
}

func (rt *Runtime) recoverBody(t *Task) {
	r := recover()
	if r == nil {
		return
	}

	t.panicked = true
	rt.panicked.Add(1)
	rt.config.Metrics.RecordTaskPanic(rt.name, r)
	rt.config.Logger.Error("task panicked",
		F("runtime", rt.name),
		F("task", t.id),
		F("name", t.name),
		F("panic", r))
	rt.config.PanicHandler.HandlePanic(rt.name, t.id, r, debug.Stack())
}

// guard runs once a task body is done. The incarnation is recorded while
// its slot is still Running, then exit frees the slot and hands control on
// in one transition. The switch never comes back, so when guard returns the
// task goroutine only unwinds and exits.
func (rt *Runtime) guard(t *Task) {
	rt.complete(t)
	rt.exit(t)
}

// complete records the finished incarnation of t.
func (rt *Runtime) complete(t *Task) {
	finished := time.Now()
	record := IncarnationRecord{
		TaskID:      t.id,
		Incarnation: t.incarnation,
		Name:        t.name,
		RuntimeName: rt.name,
		Yields:      t.yields,
		SpawnedAt:   t.spawnedAt,
		FinishedAt:  finished,
		Lifetime:    finished.Sub(t.spawnedAt),
		Panicked:    t.panicked,
	}

	rt.history.Add(record)
	rt.completed.Add(1)
	rt.config.Metrics.RecordTaskCompleted(rt.name, record.Lifetime, record.Yields)
	rt.config.Logger.Debug("task finished",
		F("runtime", rt.name),
		F("task", t.id),
		F("name", t.name),
		F("incarnation", t.incarnation),
		F("yields", t.yields),
		F("panicked", t.panicked))
}

// exit moves t to Available and the next Ready slot to Running under one
// lock, so observers never see a pool without a Running slot. The context
// of t is not saved: the switch is final.
func (rt *Runtime) exit(t *Task) {
	next, ok := rt.nextReady(t.id)
	if !ok {
		panic(fmt.Sprintf("%s finished with no ready task to switch to", t.id))
	}
	to := rt.tasks[next]
	t.stack.wipe()

	rt.mu.Lock()
	t.state = TaskAvailable
	t.ctx = Context{}
	to.state = TaskRunning
	rt.current = next
	rt.mu.Unlock()

	rt.switches.Add(1)
	rt.config.Metrics.RecordSwitch(rt.name)
	SwitchExit(&to.ctx)
}
