package core

// Context is the saved execution state of a task: its stack pointer and the
// register file that must survive a switch.
//
// Go offers no sanctioned way to swap a goroutine's machine stack, so the
// register file lives in a goroutine parked on wake. A Context is either
// freshly fabricated (live is false and the first switch enters the frame at
// SP) or the state captured by the last switch away from its task.
type Context struct {
	SP   StackPointer
	wake chan struct{}
	live bool
}

// newContext returns a never-run context entering the frame at sp.
func newContext(sp StackPointer) Context {
	return Context{SP: sp, wake: make(chan struct{})}
}

// mainContext returns the context of the goroutine driving the run loop.
func mainContext() Context {
	return Context{wake: make(chan struct{}), live: true}
}

// IsZero reports whether c was never fabricated.
func (c *Context) IsZero() bool {
	return c.wake == nil
}

// Started reports whether a switch has entered c at least once.
func (c *Context) Started() bool {
	return c.live
}

// Switch saves the running task's state into from and loads to, transferring
// control. It returns when some later switch loads from again.
//
// The calling goroutine does no task work between handing control to to and
// parking on from, so only one task ever makes progress.
func Switch(from, to *Context) {
	load(to)
	<-from.wake
}

// SwitchExit loads to without saving the caller. It is the last switch of a
// dead task: the calling goroutine must unwind and exit without touching
// runtime state.
func SwitchExit(to *Context) {
	load(to)
}

func load(to *Context) {
	switch {
	case to.IsZero():
		panic(ErrInvalidContext)
	case !to.Started():
		if to.SP.IsZero() {
			panic(ErrInvalidContext)
		}
		to.live = true
		go enter(to.SP)
	default:
		to.wake <- struct{}{}
	}
}

// enter is the first instruction of a fabricated frame: it lands in the
// start trampoline stored just above sp.
func enter(sp StackPointer) {
	sp.Load(1)()
}
