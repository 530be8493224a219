package core

import (
	"fmt"
	"sync/atomic"
)

// installed is the process-wide runtime handle. Task bodies take no
// arguments, so this is how they reach the scheduler. It is written once and
// only read afterwards, which is sound because every reader runs on the
// runtime's single logical thread.
var installed atomic.Pointer[Runtime]

// Install makes rt the process-wide runtime. Installing the same runtime
// again is a no-op; installing a different one returns ErrAlreadyInstalled.
func Install(rt *Runtime) error {
	if rt == nil {
		return fmt.Errorf("install: %w", ErrNoRuntime)
	}
	if installed.CompareAndSwap(nil, rt) {
		rt.config.Logger.Debug("runtime installed", F("runtime", rt.name), F("id", rt.id))
		return nil
	}
	if current := installed.Load(); current != rt {
		return fmt.Errorf("%w: %s", ErrAlreadyInstalled, current.name)
	}
	return nil
}

// Install makes rt the process-wide runtime. See the package-level Install.
func (rt *Runtime) Install() error {
	return Install(rt)
}

// Installed returns the process-wide runtime, or nil.
func Installed() *Runtime {
	return installed.Load()
}

// YieldNow yields the current task of the installed runtime. It is the
// suspension point for task bodies that hold no runtime reference.
//
// Panics with ErrNoRuntime if no runtime is installed.
func YieldNow() bool {
	rt := installed.Load()
	if rt == nil {
		panic(ErrNoRuntime)
	}
	return rt.Yield()
}
