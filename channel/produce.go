package channel

import "fmt"

// Produce drives a channel from a pull-style source: it repeatedly calls
// next, Putting each returned value and awaiting that Put's future before
// calling next again, until next reports ok=false, at which point it closes
// the channel. It runs in its own goroutine and returns immediately.
//
// Awaiting each Put before pulling the next value means Produce is already
// rate-matched to the channel's backpressure: a slow downstream throttles
// how fast next is called, with no extra coordination required.
//
// A panic inside next terminates the loop and closes the channel, the same
// as a normal exhausted source, rather than crashing the process. It does
// not transition the channel to any error state of its own.
func Produce[T any](c *Channel[T], next func() (T, bool)) {
	go func() {
		defer c.Close(false)

		for {
			v, ok := callNext(c, next)
			if !ok {
				return
			}

			//nolint:errcheck // Put's future never carries a usable error here
			c.Put(v).Await()
		}
	}()
}

func callNext[T any](c *Channel[T], next func() (T, bool)) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("produce source panicked", "panic", fmt.Sprint(r))

			ok = false
		}
	}()

	return next()
}
