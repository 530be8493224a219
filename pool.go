package greenrunner

import (
	"sync"

	"github.com/Swind/go-green-runner/core"
)

// =============================================================================
// Global Runtime Helper (Singleton)
// =============================================================================

var globalMu sync.Mutex

// InitGlobalRuntime creates a runtime with capacity slots and installs it as
// the process-wide handle. If a runtime is already installed it is returned
// unchanged and capacity is ignored.
func InitGlobalRuntime(capacity int) (*Runtime, error) {
	return InitGlobalRuntimeWithConfig(capacity, core.DefaultRuntimeConfig())
}

// InitGlobalRuntimeWithConfig is InitGlobalRuntime with a custom config.
func InitGlobalRuntimeWithConfig(capacity int, config *RuntimeConfig) (*Runtime, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if rt := core.Installed(); rt != nil {
		return rt, nil
	}

	rt, err := core.NewRuntimeWithConfig(capacity, config)
	if err != nil {
		return nil, err
	}
	if err := rt.Install(); err != nil {
		return nil, err
	}
	return rt, nil
}

// GetGlobalRuntime returns the installed runtime.
// It panics if InitGlobalRuntime has not been called.
func GetGlobalRuntime() *Runtime {
	rt := core.Installed()
	if rt == nil {
		panic("global runtime not initialized. Call InitGlobalRuntime() first.")
	}
	return rt
}

// Spawn spawns body on the global runtime.
func Spawn(body func()) (TaskID, error) {
	return GetGlobalRuntime().Spawn(body)
}

// SpawnNamed spawns a named body on the global runtime.
func SpawnNamed(name string, body func()) (TaskID, error) {
	return GetGlobalRuntime().SpawnNamed(name, body)
}

// MustSpawn spawns body on the global runtime and panics on error.
func MustSpawn(body func()) TaskID {
	return GetGlobalRuntime().MustSpawn(body)
}

// Yield suspends the calling task body and lets the next Ready task run.
// It is the only suspension point besides returning from the body.
func Yield() bool {
	return core.YieldNow()
}

// Loop drives the global runtime until no task is Ready.
func Loop() int {
	return GetGlobalRuntime().Loop()
}

// Run drives the global runtime to completion and exits the process.
func Run() {
	GetGlobalRuntime().Run()
}
