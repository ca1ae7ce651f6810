package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// The tests in this file pin down the seven worked scenarios the package's
// backpressure and pipeline guarantees are built around.

func TestScenarioBasicFIFO(t *testing.T) {
	c := MustNew[int]()

	for _, v := range []int{1, 2, 3, 4, 5} {
		c.Put(v)
	}

	for _, want := range []int{1, 2, 3, 4, 5} {
		assert.Equal(t, want, await[Result[int]](t, c.Take()).Value)
	}
}

func TestScenarioBufferedBackpressure(t *testing.T) {
	c := MustNew[int](WithBuffer[int](1))

	ok := await[bool](t, c.Put(1))
	assert.True(t, ok)

	put2 := c.Put(2)

	assert.Equal(t, 2, c.Length())
	assert.Equal(t, 1, c.BufLength())
	assert.Equal(t, 1, c.PutsLength())

	result := await[Result[int]](t, c.Take())
	assert.Equal(t, 1, result.Value)

	ok = await[bool](t, put2)
	assert.True(t, ok)
	assert.Equal(t, 1, c.BufLength())
	assert.Equal(t, 0, c.PutsLength())
}

func TestScenarioCloseDrain(t *testing.T) {
	c := MustNew[int]()

	c.Put(1)
	c.Close(false)
	assert.Equal(t, StateClosed, c.State())

	assert.Equal(t, 1, await[Result[int]](t, c.Take()).Value)

	await[struct{}](t, c.Done())
	assert.Equal(t, StateEnded, c.State())

	assert.True(t, await[Result[int]](t, c.Take()).Done)
}

func TestScenarioFanOutGatedBySlowestConsumer(t *testing.T) {
	ch1 := MustNew[int](WithBuffer[int](2))
	ch2 := MustNew[int](WithBuffer[int](2))
	ch3 := MustNew[int](WithBuffer[int](4))

	ch1.Pipe(ch2, ch3)

	ch1.Put(1)
	ch1.Put(2)
	ch1.Put(3)
	ch1.Put(4)

	assert.Eventually(t, func() bool {
		return ch1.BufLength() == 1 && ch2.BufLength() == 2 && ch2.PutsLength() == 1 && ch3.BufLength() == 3
	}, time.Second, time.Millisecond)

	v1 := await[Result[int]](t, ch3.Take())
	assert.Equal(t, 1, v1.Value)

	assert.Eventually(t, func() bool {
		return ch1.BufLength() == 1 && ch2.BufLength() == 2 && ch3.BufLength() == 2
	}, time.Second, time.Millisecond)

	var drained []int
	for i := 0; i < 4; i++ {
		drained = append(drained, await[Result[int]](t, ch2.Take()).Value)
	}

	for i := 0; i < 3; i++ {
		drained = append(drained, await[Result[int]](t, ch3.Take()).Value)
	}

	assert.Eventually(t, func() bool {
		return ch1.Empty() && ch2.Empty() && ch3.Empty()
	}, time.Second, time.Millisecond)

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 2, 3, 4}, drained)
}

func TestScenarioStaticPipeline(t *testing.T) {
	addTwo := MapFunc[float64](func(v float64) (float64, bool) { return v + 2, true })
	square := MapFunc[float64](func(v float64) (float64, bool) { return v * v, true })
	halve := MapFunc[float64](func(v float64) (float64, bool) { return v / 2, true })

	c0, c2, err := Pipeline[float64](addTwo, square, halve)
	assert.NoError(t, err)

	c0.Put(1)
	c0.Put(2)
	c0.Put(3)
	c0.Close(true)

	assert.Equal(t, 4.5, await[Result[float64]](t, c2.Take()).Value)
	assert.Equal(t, 8.0, await[Result[float64]](t, c2.Take()).Value)
	assert.Equal(t, 12.5, await[Result[float64]](t, c2.Take()).Value)

	await[struct{}](t, c0.Done())
	await[struct{}](t, c2.Done())
	assert.Equal(t, StateEnded, c0.State())
	assert.Equal(t, StateEnded, c2.State())
}

// TestScenarioAsyncMultiEmitOrdering checks that outputs of two concurrently
// running asynchronous transform invocations reach takers in the order they
// are pushed, and that a channel closed while those invocations are still
// in flight keeps delivering their outputs. Rather than race real timers
// (which would make the exact order nondeterministic in a preemptive
// runtime), explicit gates fix the push order: both invocations are running
// before the first one pushes, and the second pushes only after the first
// has finished pushing.
func TestScenarioAsyncMultiEmitOrdering(t *testing.T) {
	gate1 := make(chan struct{})
	gate2 := make(chan struct{})

	transform := AsyncPushFunc[int](func(v int, push func(int), done func()) {
		go func() {
			if v == 1 {
				<-gate2
				push(v)
				push(v + 2)
				close(gate1)
			} else {
				close(gate2)
				<-gate1
				push(v)
				push(v + 2)
			}
			done()
		}()
	})

	c := MustNew[int](WithTransform(transform))

	c.Put(1)
	c.Put(2)
	c.Close(false)

	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, await[Result[int]](t, c.Take()).Value)
	}

	assert.Equal(t, []int{1, 3, 2, 4}, got)
}

func TestScenarioUnpipeLeavesSiblingsIntact(t *testing.T) {
	ch1 := MustNew[int](WithBuffer[int](4))
	ch2 := MustNew[int](WithBuffer[int](2))
	ch3 := MustNew[int](WithBuffer[int](2))

	ch1.Pipe(ch2, ch3)

	ch1.Put(1)
	ch1.Put(2)

	assert.Eventually(t, func() bool {
		return ch2.BufLength() == 2 && ch3.BufLength() == 2
	}, time.Second, time.Millisecond)

	ch1.Unpipe(ch2)

	ch1.Put(3)
	ch1.Put(4)

	// value 3 waits in ch3's pending-put queue and value 4 stays on ch1
	// until a take on ch3 frees a buffer slot, moving 3 into the buffer so
	// the forwarder's put of 3 completes and it can move on to 4.
	assert.Eventually(t, func() bool {
		return ch3.Length() == 3
	}, time.Second, time.Millisecond)

	var ch2Values []int
	for i := 0; i < 2; i++ {
		ch2Values = append(ch2Values, await[Result[int]](t, ch2.Take()).Value)
	}

	var ch3Values []int
	for i := 0; i < 4; i++ {
		ch3Values = append(ch3Values, await[Result[int]](t, ch3.Take()).Value)
	}

	assert.Equal(t, []int{1, 2}, ch2Values)
	assert.Equal(t, []int{1, 2, 3, 4}, ch3Values)
}
