package channel

import (
	"time"

	"github.com/ezex-io/gopkg/chanflow/internal/future"
)

// Timeout returns a future that resolves after ms milliseconds elapse. It's
// the building block AsyncPushFunc transforms use to defer a push or a done
// signal. Deliberately takes no context.Context: nothing at the channel
// level ever cancels a pending transform invocation.
func Timeout(ms int) *future.Future[struct{}] {
	f := future.New[struct{}]()

	time.AfterFunc(time.Duration(ms)*time.Millisecond, func() {
		f.Resolve(struct{}{})
	})

	return f
}
