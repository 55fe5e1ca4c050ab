package render

import (
	"sync"

	"github.com/mudler/xlog"
)

// AutoplayCoordinator guarantees at most one autoplay attempt per rendered
// audio element id for the lifetime of the process, independent of whether
// the attempt succeeds or the browser rejects it. The registry is append-only
// and never persisted.
type AutoplayCoordinator struct {
	mu        sync.Mutex
	attempted map[string]struct{}
}

func NewAutoplayCoordinator() *AutoplayCoordinator {
	return &AutoplayCoordinator{
		attempted: map[string]struct{}{},
	}
}

// Attempt invokes play for the given element id unless an attempt was
// already recorded. The id is recorded before the outcome is known, so a
// blocked element is never retried and never logged repeatedly.
func (a *AutoplayCoordinator) Attempt(id string, play func() error) {
	if id == "" {
		return
	}

	a.mu.Lock()
	if _, done := a.attempted[id]; done {
		a.mu.Unlock()
		return
	}
	a.attempted[id] = struct{}{}
	a.mu.Unlock()

	if play == nil {
		return
	}
	if err := play(); err != nil {
		xlog.Debug("Autoplay attempt rejected", "element", id, "error", err)
	}
}
