// Package dag is the execution core of taskgrid. It owns a registry of named
// tasks, links them into a dependency graph while they are being registered,
// and executes every task exactly once after all of its dependencies have
// completed successfully.
//
// # Registration
//
// Tasks are added with Runner.Register. A task may name dependencies that are
// not registered yet; such dependencies become placeholder nodes until their
// own registration attaches a body. Cycles are rejected on the edge that
// closes them, and the error carries the full cycle path:
//
//	circular dependency detected: A --> B --> A
//
// Every node keeps the set of ids reachable downstream of it. Adding the edge
// dep -> task merges the task's downstream set into dep and into every
// ancestor of dep, so a cycle shows up as a node that finds itself in its own
// downstream set.
//
// A failed registration is not rolled back. The edges applied before the
// failing one stay in place, so a Runner that returned a construction error
// should be discarded.
//
// # Execution
//
// Runner.Run starts every task with no pending dependencies on its own
// goroutine. When a task succeeds, its result is handed to each dependent and
// the dependent's counter is decremented; a dependent whose counter reaches
// zero starts immediately, without waiting for the rest of its parent's
// "wave". When a task fails, its dependents never start. Tasks already running
// are always allowed to finish, and only the first error is returned.
//
// A Runner executes once. Dependency counters are consumed by the first run,
// so a second call to Run fails with ErrAlreadyRun.
package dag
