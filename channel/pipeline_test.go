package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPipeReturnsLastChannelForChaining(t *testing.T) {
	a := MustNew[int](WithBuffer[int](2))
	b := MustNew[int](WithBuffer[int](2))
	c := MustNew[int](WithBuffer[int](2))

	last := a.Pipe(b).Pipe(c)
	assert.Same(t, c, last)

	a.Put(1)
	a.Close(true)

	assert.Equal(t, 1, await[Result[int]](t, c.Take()).Value)

	await[struct{}](t, a.Done())
	await[struct{}](t, b.Done())
	await[struct{}](t, c.Done())
}

func TestMergeEndsOnlyAfterEverySourceEnds(t *testing.T) {
	a := MustNew[int](WithBuffer[int](2))
	b := MustNew[int](WithBuffer[int](2))

	out, err := a.Merge(b)
	assert.NoError(t, err)

	a.Put(1)
	a.Put(2)
	b.Put(3)

	a.Close(false)

	select {
	case <-out.Done().Done():
		t.Fatal("merged channel ended before every source ended")
	case <-time.After(20 * time.Millisecond):
	}

	b.Close(false)

	var got []int
	for i := 0; i < 3; i++ {
		got = append(got, await[Result[int]](t, out.Take()).Value)
	}

	assert.ElementsMatch(t, []int{1, 2, 3}, got)

	await[struct{}](t, out.Done())
}
