// Package task implements the suspendable, single-threaded execution unit
// that the rest of this module schedules: a lazily started, cooperatively
// resumed computation with a one-shot result slot (empty, value, or error)
// and a continuation that is wired at most once per completion.
//
// Go has no native coroutine with symmetric transfer, so the engine below
// realizes it with one goroutine per Task acting purely as a suspended
// call stack: at any instant exactly one goroutine is unblocked (either
// the dispatcher or whichever Task currently holds the baton), handed off
// through a pair of unbuffered channels. Resuming a chain of tasks is a
// loop in resume, not recursion, so dispatcher stack use is O(1) in the
// length of an await chain. Cancellation unwinds a parked Task's goroutine
// with a sentinel panic, letting ordinary Go defers play the role the
// source's destructors play: a buffered stream, file, or scheduler
// registration parked underneath an awaiter tears itself down on the way
// out, cascading exactly like frame destruction.
package task
