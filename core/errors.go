package core

import "errors"

var (
	// ErrPoolExhausted is returned by Spawn when every task slot is in use.
	// The pool never grows.
	ErrPoolExhausted = errors.New("task pool exhausted")

	// ErrNilTask is returned by Spawn when the task body is nil.
	ErrNilTask = errors.New("task body is nil")

	// ErrInvalidCapacity is returned when a runtime is built with fewer than
	// two slots (slot 0 is reserved for the main task).
	ErrInvalidCapacity = errors.New("runtime capacity must be at least 2")

	// ErrStackTooSmall is returned when the configured stack cannot hold the
	// fabricated entry frame.
	ErrStackTooSmall = errors.New("stack size too small")

	// ErrAlreadyInstalled is returned when a different runtime is already
	// installed as the process-wide handle.
	ErrAlreadyInstalled = errors.New("a runtime is already installed")

	// ErrNoRuntime is the panic value of YieldNow when no runtime is installed.
	ErrNoRuntime = errors.New("no runtime installed")

	// ErrNotMainTask is the panic value of Loop and Run when called from
	// inside a task body.
	ErrNotMainTask = errors.New("run loop must be driven by the main task")

	// ErrInvalidContext is the panic value of a switch into a context that was
	// never fabricated.
	ErrInvalidContext = errors.New("switch into invalid context")
)
