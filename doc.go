// Package greenrunner provides a cooperative user-space multitasking runtime for Go.
//
// A Runtime owns a fixed pool of task slots. Tasks run one at a time on a
// single logical thread and switch only when a task body calls Yield or
// returns. There is no preemption, no timer and no parallelism between task
// bodies, so tasks can share plain variables without locks.
//
// # Quick Start
//
// Initialize the global runtime at application startup:
//
//	greenrunner.InitGlobalRuntime(10) // slot 0 plus 9 task slots
//
// Spawn task bodies and start the run loop:
//
//	greenrunner.MustSpawn(func() {
//		for i := 0; i < 3; i++ {
//			fmt.Println("tick", i)
//			greenrunner.Yield()
//		}
//	})
//	greenrunner.Run() // exits the process when every task has finished
//
// # Key Concepts
//
// Slot: a fixed position in the pool, reused by successive tasks. Slot 0 is
// the main task: the goroutine that calls Run or Loop.
//
// Yield: scans forward from the current slot, in circular order, for the
// first Ready slot and switches to it. When no other slot is Ready it
// returns false without switching.
//
// Guard: when a task body returns, its slot becomes Available again and the
// runtime yields on its behalf. The task's goroutine then exits.
//
// # Embedding
//
// Run terminates the process. Programs that need control back use Loop,
// which returns once no task is Ready, and can spawn and loop again.
//
// For more details, see https://github.com/Swind/go-green-runner
package greenrunner
