package task

// Task is the typed facade applications use; it wraps an untyped Frame the
// way hayabusa-cloud-kont's generic Expr[A] wraps its erased evaluator
// frames, so the one goroutine/channel engine in Frame serves every result
// type without duplicating it per-T.
type Task[T any] struct {
	frame *Frame
}

// New creates a not-started Task[T]: body runs on its own goroutine only
// once Start or an Await brings it into the dispatcher.
func New[T any](name string, body func(*Ctx) (T, error)) *Task[T] {
	f := Spawn(name, func(c *Ctx) (any, error) {
		return body(c)
	})
	return &Task[T]{frame: f}
}

// Frame exposes the underlying untyped handle, for combinators and the
// event loop that operate across Tasks of different T.
func (t *Task[T]) Frame() *Frame { return t.frame }

// Start kicks off t without anyone awaiting it — the background-spawn path.
func (t *Task[T]) Start() { Start(t.frame) }

// Cancel destroys t, cascading into whatever it is currently parked on.
func (t *Task[T]) Cancel() { Cancel(t.frame) }

// Done reports whether t has completed (by value, error, or cancellation).
func (t *Task[T]) Done() bool { return t.frame.Done() }

// Canceled reports whether t's completion was a cancellation.
func (t *Task[T]) Canceled() bool { return t.frame.Canceled() }

// Result returns t's value and error. Calling it before Done is a
// programmer error, mirroring Promise::result() being only valid once the
// coroutine has actually produced a result.
func (t *Task[T]) Result() (T, error) {
	val, err := t.frame.Result()
	return asT[T](val), err
}

// Await starts t and suspends the calling Task until t completes; if t has
// already completed, its result is returned at once. t must not have been
// started or awaited already: that case fails with ErrAlreadyAwaited. It
// is the typed entry point corresponding to co_await on a Task<T> in the
// source.
func Await[T any](c *Ctx, t *Task[T]) (T, error) {
	val, err := c.AwaitFrame(t.frame)
	if err != nil {
		var zero T
		return zero, err
	}
	return asT[T](val), nil
}

func asT[T any](val any) T {
	if val == nil {
		var zero T
		return zero
	}
	return val.(T)
}
