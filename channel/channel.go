package channel

import (
	"fmt"
	"sync"

	"github.com/ezex-io/gopkg/chanflow/errors"
	"github.com/ezex-io/gopkg/chanflow/internal/future"
	"github.com/ezex-io/gopkg/chanflow/internal/queue"
	"github.com/ezex-io/gopkg/chanflow/logger"
)

// putRecord pairs a value parked in puts or tail with the resolver future
// that signals when it has been taken out of that queue (nil if the value
// was delivered immediately and never parked).
type putRecord[T any] struct {
	value    T
	resolver *future.Future[struct{}]
}

// Channel is an asynchronous, buffered, transformable message channel. The
// zero value is not usable; construct one with New or MustNew.
type Channel[T any] struct {
	mu    sync.Mutex
	state State

	buf   *queue.FixedQueue[T]                    // bounded buffer, nil if unbuffered
	puts  *queue.List[*putRecord[T]]              // values that didn't fit buf or an open take
	takes *queue.List[*future.Future[Result[T]]]  // takers parked waiting for a value
	tail  *queue.List[*putRecord[T]]              // values placed directly via Tail

	// pendingTransforms counts transform invocations that have been started
	// (via put/Tail) but haven't yet signaled complete(). Close only
	// transitions straight to ENDED when this is zero.
	pendingTransforms int

	// pipelineInFlight counts values the forwarder has taken off this
	// channel but not yet finished forwarding to every downstream channel.
	// Without this, a value could be removed from the queue (letting the
	// channel look drained) and then lost to a premature ENDED transition
	// before it actually reached its downstream.
	pipelineInFlight int

	// pipeline is the ordered set of downstream channels values are
	// automatically forwarded to; see pipeline.go.
	pipeline  []*Channel[T]
	forwarder bool // a forwarder goroutine is already running

	doneWaiters []*future.Future[struct{}]

	transform Transform[T]
	logger    logger.Logger
}

// State reports the channel's current lifecycle stage.
func (c *Channel[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Length reports the number of values currently queued: buffered, pending
// put, and tail combined. It does not count parked takers.
func (c *Channel[T]) Length() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lengthLocked()
}

func (c *Channel[T]) lengthLocked() int {
	n := c.puts.Length() + c.tail.Length()
	if c.buf != nil {
		n += c.buf.Length()
	}

	return n
}

// Empty reports whether the channel currently holds no queued values.
func (c *Channel[T]) Empty() bool {
	return c.Length() == 0
}

// BufLength reports how many values currently sit in the bounded buffer (0
// for an unbuffered channel). Exposed, alongside PutsLength/TakesLength/
// TailLength, so tests can pin down exact queue occupancy.
func (c *Channel[T]) BufLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf == nil {
		return 0
	}

	return c.buf.Length()
}

// Size reports the bounded buffer's capacity, or 0 for an unbuffered
// channel.
func (c *Channel[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf == nil {
		return 0
	}

	return c.buf.Size()
}

// PutsLength reports how many values are parked in the pending-put queue,
// waiting for buffer space or a taker.
func (c *Channel[T]) PutsLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.puts.Length()
}

// TakesLength reports how many takers are parked waiting for a value.
func (c *Channel[T]) TakesLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.takes.Length()
}

// TailLength reports how many values are queued in the tail queue.
func (c *Channel[T]) TailLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tail.Length()
}

// Put offers a value to the channel. It runs the channel's transform on
// value and, once the transform has completed and every resulting output
// has been handed to a parked taker, stored in a buffer slot, or (if it had
// to wait in the pending-put queue) has left that queue, resolves the
// returned future with true. Put on a CLOSED or ENDED channel resolves
// immediately with false and does not enqueue.
func (c *Channel[T]) Put(value T) *future.Future[bool] {
	return c.put(value, false)
}

// Tail behaves like Put, except its outputs bypass buf and takes entirely
// and are appended straight to the tail queue, to be delivered only after
// every value already queued ahead of them has drained, but before the
// channel transitions to ENDED.
func (c *Channel[T]) Tail(value T) *future.Future[bool] {
	return c.put(value, true)
}

func (c *Channel[T]) put(value T, tail bool) *future.Future[bool] {
	result := future.New[bool]()

	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		result.Resolve(false)

		return result
	}

	transform := c.transform
	c.pendingTransforms++
	c.mu.Unlock()

	collector := newOutputCollector()

	emit := func(out T) {
		c.mu.Lock()
		r := c.place(out, tail)
		c.mu.Unlock()
		collector.add(r)
	}

	complete := func() {
		go func() {
			collector.wait()
			result.Resolve(true)

			c.mu.Lock()
			c.pendingTransforms--
			c.maybeTransitionToEnded()
			c.mu.Unlock()
		}()
	}

	func() {
		defer c.recoverTransformPanic(result)
		transform.apply(value, emit, complete)
	}()

	return result
}

func (c *Channel[T]) recoverTransformPanic(result *future.Future[bool]) {
	if r := recover(); r != nil {
		err := errors.ErrInternal.Clone().AddMeta("panic", fmt.Sprint(r))
		c.logger.Error("channel transform panicked", "error", err)
		result.ResolveErr(false, err)
	}
}

// place delivers out to the first available parked taker, else buf (unless
// tail is true), else appends to puts or tail. It must be called with mu
// held, and returns a resolver future that fires once out actually leaves
// the queue it was parked in — nil if it was delivered immediately.
func (c *Channel[T]) place(out T, tail bool) *future.Future[struct{}] {
	if !tail {
		if waiter, ok := c.takes.Shift(); ok {
			waiter.Resolve(Result[T]{Value: out})

			return nil
		}

		if c.buf != nil && c.buf.Push(out) {
			return nil
		}
	}

	resolver := future.New[struct{}]()
	rec := &putRecord[T]{value: out, resolver: resolver}

	if tail {
		c.tail.Push(rec)
	} else {
		c.puts.Push(rec)
	}

	return resolver
}

// Take removes and returns the next available value, preferring buf, then
// pending puts, and only then the tail queue — tail values are delivered
// strictly after everything queued ahead of them, and only once the
// channel is no longer OPEN. If nothing is queued and the channel is
// OPEN, or CLOSED with a transform still in flight, the returned future
// parks until a value arrives or no further value can arrive. Otherwise
// (ENDED, or CLOSED with nothing left to deliver) it resolves immediately
// with a Result whose Done field is true. Every branch re-checks CLOSED->ENDED afterwards,
// since draining the last queued value is itself what can make the
// channel eligible to end.
func (c *Channel[T]) Take() *future.Future[Result[T]] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf != nil {
		if v, ok := c.buf.Shift(); ok {
			c.refillBufFromPuts()
			c.maybeTransitionToEnded()

			return future.Resolved(Result[T]{Value: v})
		}
	}

	if rec, ok := c.puts.Shift(); ok {
		c.deliver(rec)
		c.maybeTransitionToEnded()

		return future.Resolved(Result[T]{Value: rec.value})
	}

	if c.state != StateOpen {
		if rec, ok := c.tail.Shift(); ok {
			c.deliver(rec)
			c.maybeTransitionToEnded()

			return future.Resolved(Result[T]{Value: rec.value})
		}

		c.maybeTransitionToEnded()

		if c.pendingTransforms == 0 {
			return future.Resolved(Result[T]{Done: true})
		}
	}

	waiter := future.New[Result[T]]()
	c.takes.Push(waiter)

	return waiter
}

// refillBufFromPuts moves one pending put into the buffer slot just freed by
// a Take, if any puts are queued. Must be called with mu held.
func (c *Channel[T]) refillBufFromPuts() {
	if rec, ok := c.puts.Shift(); ok {
		c.buf.Push(rec.value)
		c.deliver(rec)
	}
}

func (c *Channel[T]) deliver(rec *putRecord[T]) {
	if rec.resolver != nil {
		rec.resolver.Resolve(struct{}{})
	}
}

// Close moves the channel from OPEN towards ENDED: no further puts are
// accepted, and values already queued continue to drain via Take. If
// nothing is queued and no transform is mid-flight, the channel ends
// immediately; otherwise it moves to CLOSED and ends on the Take that
// empties its last queue. If closeAll is true, every channel in the
// pipeline is closed the same way once this channel finishes draining.
// Close on a non-OPEN channel is a no-op.
func (c *Channel[T]) Close(closeAll bool) {
	c.mu.Lock()

	if c.state != StateOpen {
		c.mu.Unlock()

		return
	}

	c.state = StateClosed
	c.logger.Debug("channel closed")

	// Takers parked while the channel was OPEN could not be served from
	// tail; now that it is closed, tail values go to them in order.
	for !c.takes.Empty() {
		rec, ok := c.tail.Shift()
		if !ok {
			break
		}

		waiter, _ := c.takes.Shift()
		waiter.Resolve(Result[T]{Value: rec.value})
		c.deliver(rec)
	}

	c.maybeTransitionToEnded()
	downstream := append([]*Channel[T](nil), c.pipeline...)
	c.mu.Unlock()

	if closeAll && len(downstream) > 0 {
		go func() {
			c.Done().Await() //nolint:errcheck

			for _, ch := range downstream {
				ch.Close(true)
			}
		}()
	}
}

// Done returns a future that resolves once the channel reaches ENDED.
// Multiple concurrent calls all resolve together; calling Done on an
// already-ENDED channel resolves immediately.
func (c *Channel[T]) Done() *future.Future[struct{}] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEnded {
		return future.Resolved(struct{}{})
	}

	f := future.New[struct{}]()
	c.doneWaiters = append(c.doneWaiters, f)

	return f
}

// maybeTransitionToEnded acts once a CLOSED channel has every queue drained
// and no transform still mid-flight: it resolves any parked takers with a
// done Result, since no value can reach them any more, and, unless the
// forwarder is still carrying a value downstream, moves the channel to
// ENDED and resolves its Done waiters. Must be called with mu held.
func (c *Channel[T]) maybeTransitionToEnded() {
	if c.state != StateClosed {
		return
	}

	if c.lengthLocked() > 0 || c.pendingTransforms > 0 {
		return
	}

	for {
		waiter, ok := c.takes.Shift()
		if !ok {
			break
		}

		waiter.Resolve(Result[T]{Done: true})
	}

	if c.pipelineInFlight > 0 {
		return
	}

	c.state = StateEnded
	c.logger.Debug("channel ended")

	for _, f := range c.doneWaiters {
		f.Resolve(struct{}{})
	}

	c.doneWaiters = nil
}
