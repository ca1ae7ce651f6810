package channel

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ezex-io/gopkg/chanflow/errors"
)

// Pipe appends each of channels to this channel's pipeline and starts (or
// continues) its background forwarder: while this channel isn't ENDED and
// its pipeline is non-empty, the forwarder repeatedly takes a value and
// puts it on every downstream channel concurrently, awaiting all of them
// before taking the next — the slowest downstream consumer gates the
// whole fan-out. Pipe returns the last channel passed in, so
// a.Pipe(b).Pipe(c) chains.
func (c *Channel[T]) Pipe(channels ...*Channel[T]) *Channel[T] {
	if len(channels) == 0 {
		return c
	}

	c.mu.Lock()
	c.pipeline = append(c.pipeline, channels...)
	start := !c.forwarder
	if start {
		c.forwarder = true
	}
	c.mu.Unlock()

	if start {
		go c.runForwarder()
	}

	return channels[len(channels)-1]
}

// Unpipe removes ch from this channel's pipeline and returns this channel.
// The forwarder observes the updated pipeline on its next iteration. A
// value already parked as a pending put inside ch is not withdrawn — once
// a value has crossed into a downstream channel it stays delivered there,
// even after that channel is unpiped.
func (c *Channel[T]) Unpipe(ch *Channel[T]) *Channel[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, d := range c.pipeline {
		if d == ch {
			c.pipeline = append(c.pipeline[:i], c.pipeline[i+1:]...)

			break
		}
	}

	return c
}

// runForwarder is the background loop Pipe starts lazily. It holds no lock
// across a Take or Put await, so concurrent callers can observe the
// channel's state between each forwarding step instead of only at
// goroutine boundaries.
func (c *Channel[T]) runForwarder() {
	for {
		c.mu.Lock()
		if len(c.pipeline) == 0 || c.state == StateEnded {
			c.forwarder = false
			c.mu.Unlock()

			return
		}
		// Reserved before Take so a value can never be removed from this
		// channel's queue and then lost to a premature ENDED transition
		// while it's still on its way downstream.
		c.pipelineInFlight++
		c.mu.Unlock()

		result, _ := c.Take().Await() //nolint:errcheck // Take's future never carries an error

		if result.Done {
			c.mu.Lock()
			c.pipelineInFlight--
			c.forwarder = false
			c.maybeTransitionToEnded()
			c.mu.Unlock()

			return
		}

		c.mu.Lock()
		downstream := append([]*Channel[T](nil), c.pipeline...)
		c.mu.Unlock()

		// errgroup gives a "run N, wait for all" shape. An error on a
		// downstream Put's future (a panicking downstream transform) is
		// discarded here; it does not reach the upstream Put that seeded
		// the value.
		group := new(errgroup.Group)
		for _, ch := range downstream {
			ch := ch
			group.Go(func() error {
				ch.Put(result.Value).Await() //nolint:errcheck

				return nil
			})
		}

		_ = group.Wait()

		c.mu.Lock()
		c.pipelineInFlight--
		c.maybeTransitionToEnded()
		c.mu.Unlock()
	}
}

// Merge returns a new channel that every one of this channel and channels
// pipes into. The merged channel closes only after every source has ended.
func (c *Channel[T]) Merge(channels ...*Channel[T]) (*Channel[T], error) {
	out, err := New[T]()
	if err != nil {
		return nil, err
	}

	sources := append([]*Channel[T]{c}, channels...)
	remaining := int32(len(sources))

	for _, s := range sources {
		s.Pipe(out)

		go func(s *Channel[T]) {
			s.Done().Await() //nolint:errcheck

			if atomic.AddInt32(&remaining, -1) == 0 {
				out.Close(false)
			}
		}(s)
	}

	return out, nil
}

// Pipeline constructs len(fns) channels c0..cN-1, each cI carrying
// transform fns[i], and pipes c0 -> c1 -> ... -> cN-1. It returns the first
// and last channel of the chain. Closing first with closeAll=true
// propagates the close through to last.
func Pipeline[T any](fns ...Transform[T]) (first, last *Channel[T], err error) {
	if len(fns) == 0 {
		return nil, nil, errors.ErrInvalidArgument.Clone().AddMeta("argument", "fns")
	}

	channels := make([]*Channel[T], len(fns))

	for i, fn := range fns {
		ch, cerr := New[T](WithTransform(fn))
		if cerr != nil {
			return nil, nil, cerr
		}

		channels[i] = ch
	}

	for i := 0; i < len(channels)-1; i++ {
		channels[i].Pipe(channels[i+1])
	}

	return channels[0], channels[len(channels)-1], nil
}
