// Scheduled background jobs.
//
// A Loop runs a function on a fixed interval in its own goroutine, after an optional readiness check. Errors and panics are logged per iteration and never stop the loop: only cancelling the context (or calling Stop) does.
package tasks
