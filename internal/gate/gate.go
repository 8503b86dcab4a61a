// Package gate implements a single-slot serialization queue.
//
// A Gate is either open (idle) or closed (one operation in flight). Ops queued
// while it is closed are held in FIFO order and all receive the outcome of the
// operation that reopens it. The gate is not safe for concurrent use; callers
// serialize access themselves.
package gate

// Op is a unit of work admitted through the gate.
type Op struct {
	// OnSuccess runs when the op is admitted. result is the value the gate
	// was reopened with, or nil when the op ran on an open gate.
	OnSuccess func(result any)

	// OnFailure runs instead of OnSuccess when the gate reopens with an error.
	OnFailure func(err error)
}

// Gate is a FIFO admission queue with a single in-flight slot.
type Gate struct {
	open    bool
	waiting []Op
}

// New returns an open gate.
func New() *Gate {
	return &Gate{open: true}
}

// IsOpen reports whether an op queued now would run immediately.
func (g *Gate) IsOpen() bool {
	return g.open
}

// Len returns the number of ops waiting for the gate to reopen.
func (g *Gate) Len() int {
	return len(g.waiting)
}

// Queue runs op immediately when the gate is open, otherwise holds it.
func (g *Gate) Queue(op Op) {
	if g.open {
		if op.OnSuccess != nil {
			op.OnSuccess(nil)
		}
		return
	}
	g.waiting = append(g.waiting, op)
}

// Close marks an operation as in flight. Subsequent ops are held.
func (g *Gate) Close() {
	g.open = false
}

// Succeed reopens the gate and admits every held op with result, in order.
func (g *Gate) Succeed(result any) {
	g.open = true
	for _, op := range g.drain() {
		if op.OnSuccess != nil {
			op.OnSuccess(result)
		}
	}
}

// Fail reopens the gate and fails every held op with err, in order.
func (g *Gate) Fail(err error) {
	g.open = true
	for _, op := range g.drain() {
		if op.OnFailure != nil {
			op.OnFailure(err)
		}
	}
}

// SuccessHandler returns a function that runs fn and then reopens the gate
// with the same result.
func (g *Gate) SuccessHandler(fn func(result any)) func(result any) {
	return func(result any) {
		if fn != nil {
			fn(result)
		}
		g.Succeed(result)
	}
}

// FailureHandler returns a function that runs fn and then reopens the gate
// failing held ops with the same error.
func (g *Gate) FailureHandler(fn func(err error)) func(err error) {
	return func(err error) {
		if fn != nil {
			fn(err)
		}
		g.Fail(err)
	}
}

// drain detaches the held ops so ops queued while delivering are handled by
// the (now open) gate directly.
func (g *Gate) drain() []Op {
	ops := g.waiting
	g.waiting = nil
	return ops
}
