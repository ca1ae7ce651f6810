// Package channel implements an asynchronous, buffered, transformable
// message channel with composable pipelines — a CSP-style channel whose
// defining property is backpressure: a slow consumer throttles a fast
// producer without loss, duplication, or reordering.
//
// A Channel moves through three states: OPEN, where it accepts puts and
// takes; CLOSED, where it accepts no new puts but keeps draining what's
// already queued; and ENDED, the terminal state reached once everything
// buffered, pending, and in-flight has been delivered. Takes issued on or
// after ENDED resolve immediately with a Result whose Done field is set.
//
// Every Channel method is safe for concurrent use. The source this package
// generalizes assumes a single-threaded cooperative scheduler; here that's
// replaced with one mutex per Channel guarding all field mutations, and
// future.Future standing in for the one-shot, multi-waiter promise the
// cooperative model relies on.
package channel
