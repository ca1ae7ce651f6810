package channel

import "fmt"

// Consume drives values out of a channel into fn, one at a time, until the
// channel reaches ENDED. It runs in its own goroutine and returns
// immediately; callers that need to know when consumption finishes should
// have fn signal completion itself (e.g. by closing a channel or resolving
// a future.Future).
//
// Each call to fn runs only after the previous Take has resolved, so a slow
// fn naturally limits how often Take is called — the consumer side of the
// same backpressure Produce provides on the producer side.
//
// A panic inside fn terminates the loop without propagating past Consume
// and without touching the channel's own state; values left unread simply
// stay queued.
func Consume[T any](c *Channel[T], fn func(T)) {
	go func() {
		for {
			result, _ := c.Take().Await()
			if result.Done {
				return
			}

			if !callFn(c, fn, result.Value) {
				return
			}
		}
	}()
}

func callFn[T any](c *Channel[T], fn func(T), value T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("consume callback panicked", "panic", fmt.Sprint(r))

			ok = false
		}
	}()

	fn(value)

	return true
}
