package task

import (
	"errors"
	"fmt"
)

// ErrCanceled names cancellation for callers that want an error value for
// it. The dispatcher itself never returns or records it: a Task canceled
// while parked is unwound with an unexported sentinel panic, and its
// Frame then reports Canceled with a nil value and nil error.
var ErrCanceled = errors.New("task: canceled")

// ErrAlreadyAwaited is a programmer error: a Frame was handed to AwaitFrame
// a second time while the first await was still in flight. A Frame handle
// must stay stable under exactly one awaiter for its lifetime.
var ErrAlreadyAwaited = errors.New("task: frame already has an awaiter")

type cancelSignal struct{}

type yieldKind int

const (
	ySuspendExternal yieldKind = iota
	ySuspendTransfer
	yDone
)

type resumeMsg struct {
	val      any
	err      error
	canceled bool
}

type yieldMsg struct {
	kind     yieldKind
	arm      func(deliver func(val any, err error)) (teardown func(), err error)
	target   *Frame
	val      any
	err      error
	canceled bool
}

type parkState struct {
	teardown func()
}

// Frame is the untyped, owning handle to a suspendable computation: the Go
// realization of a coroutine frame. It is lazily started (created
// not-started, per spec) and drives its body on a dedicated goroutine that
// is blocked on a channel at every point the body is not actually running
// — so exactly one goroutine among the whole task tree is ever runnable,
// matching the single-threaded cooperative model. Frame is not exported to
// user code directly for typed results; see Task[T] in promise.go.
type Frame struct {
	name     string
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg

	started  bool
	done     bool
	canceled bool
	result   any
	resErr   error

	continuation  *Frame
	parked        *parkState
	awaitingChild *Frame
}

// Spawn creates a Task frame not-started: body will not run until Start or
// an AwaitFrame resumes it for the first time.
func Spawn(name string, body func(*Ctx) (any, error)) *Frame {
	f := &Frame{
		name:     name,
		resumeCh: make(chan resumeMsg),
		yieldCh:  make(chan yieldMsg),
	}
	go f.runGoroutine(body)
	return f
}

func (f *Frame) runGoroutine(body func(*Ctx) (any, error)) {
	msg := <-f.resumeCh // initial suspension: always taken
	if msg.canceled {
		f.yieldCh <- yieldMsg{kind: yDone, canceled: true}
		return
	}

	co := &Ctx{f: f}
	var val any
	var err error
	canceled := false
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if _, ok := r.(cancelSignal); ok {
				canceled = true
				val, err = nil, nil
				return
			}
			// A panicking body is this module's analog of an escaping
			// C++ exception: captured here instead of crashing the
			// process, and surfaced as the Task's error result so an
			// awaiter observes it the same way it would a returned
			// error.
			val = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("task: panic: %v", r)
			}
		}()
		val, err = body(co)
	}()
	f.yieldCh <- yieldMsg{kind: yDone, val: val, err: err, canceled: canceled}
}

// Start performs the initial resume of a not-yet-started, unowned Frame —
// used for the loop's top-level task and for background-spawned tasks that
// nobody co_awaits.
func Start(f *Frame) {
	if f.started || f.done {
		return
	}
	resume(f, resumeMsg{})
}

// Done reports whether f has produced a result (value, error, or
// cancellation).
func (f *Frame) Done() bool { return f.done }

// Canceled reports whether f's completion was a cancellation.
func (f *Frame) Canceled() bool { return f.canceled }

// Result returns the value and error f completed with. Calling it before
// Done is a programmer error.
func (f *Frame) Result() (any, error) {
	if !f.done {
		panic("task: Result called before Frame is done")
	}
	return f.result, f.resErr
}

// resume drives f, and transitively whatever f tail-transfers into or
// completes into, until the chain either parks at an external Awaiter or
// runs out of continuations. This loop — not recursion — is what keeps
// dispatcher stack use flat across arbitrarily long await chains.
func resume(f *Frame, msg resumeMsg) {
	for f != nil && !f.done {
		if !f.started {
			f.started = true
		}
		f.parked = nil
		f.resumeCh <- msg
		y := <-f.yieldCh

		switch y.kind {
		case ySuspendExternal:
			cur := f
			teardown, armErr := y.arm(func(val any, err error) {
				cur.parked = nil
				resume(cur, resumeMsg{val: val, err: err})
			})
			if armErr != nil {
				// Arm failed synchronously: deliver the failure in
				// this same loop iteration instead of through the
				// deliver closure above, since that closure would
				// reenter this very call.
				msg = resumeMsg{err: armErr}
				continue
			}
			cur.parked = &parkState{teardown: teardown}
			return

		case ySuspendTransfer:
			child := y.target
			f.awaitingChild = child
			f = child
			msg = resumeMsg{}
			continue

		case yDone:
			f.done = true
			f.result, f.resErr, f.canceled = y.val, y.err, y.canceled
			cont := f.continuation
			f.continuation = nil
			if cont != nil {
				cont.awaitingChild = nil
			}
			f = cont
			msg = resumeMsg{val: y.val, err: y.err}
			continue
		}
	}
}

// Cancel destroys f: if it is parked at an external Awaiter, the
// Awaiter's teardown runs; if it is parked transferring to a child Frame,
// the child is canceled first — cascading outward exactly like nested
// frame destruction. f's own goroutine is then unwound via a sentinel
// panic so any deferred cleanup in its body still runs.
func Cancel(f *Frame) {
	if f == nil || f.done {
		return
	}
	if f.awaitingChild != nil {
		Cancel(f.awaitingChild)
		f.awaitingChild = nil
	}
	if f.parked != nil {
		if f.parked.teardown != nil {
			f.parked.teardown()
		}
		f.parked = nil
	}
	if !f.started {
		// Never resumed: the goroutine is blocked on the very first
		// receive in runGoroutine, which is exactly resumeCh.
	}
	f.resumeCh <- resumeMsg{canceled: true}
	<-f.yieldCh
	f.done = true
	f.canceled = true
}
