package channel

import (
	"sync"

	"github.com/ezex-io/gopkg/chanflow/internal/future"
)

// outputCollector tracks the per-output "left the queue" resolvers a
// transform invocation parks while emitting (see Channel.place), so the
// seeding Put/Tail future can wait for all of them before resolving true.
type outputCollector struct {
	mu      sync.Mutex
	pending []*future.Future[struct{}]
}

func newOutputCollector() *outputCollector {
	return &outputCollector{}
}

func (o *outputCollector) add(r *future.Future[struct{}]) {
	if r == nil {
		return
	}

	o.mu.Lock()
	o.pending = append(o.pending, r)
	o.mu.Unlock()
}

// wait blocks until every resolver collected so far has fired. Callers must
// only invoke it after the transform has signaled completion, so that no
// further resolvers can be added concurrently.
func (o *outputCollector) wait() {
	o.mu.Lock()
	pending := o.pending
	o.mu.Unlock()

	for _, r := range pending {
		r.Await() //nolint:errcheck // park resolvers never carry an error
	}
}
