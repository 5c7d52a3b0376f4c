package ros

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// MultiThreadedExecutor drives the abstract Executor's selection loop
// from a pool of worker goroutines. Every worker calls
// getNextExecutable under a shared selection mutex and releases it
// before dispatching, so the wait-set is only ever built and scanned
// by one worker at a time; the per-group canBeTakenFrom token then
// enforces per-group serialization during the dispatch itself without
// any lock held across user code.
type MultiThreadedExecutor struct {
	*Executor
	workers  int
	selectMu sync.Mutex
}

// NewMultiThreadedExecutor constructs a MultiThreadedExecutor with the
// given worker pool size. A size below 1 is treated as 1.
func NewMultiThreadedExecutor(workers int) *MultiThreadedExecutor {
	if workers < 1 {
		workers = 1
	}
	return &MultiThreadedExecutor{Executor: NewExecutor(), workers: workers}
}

// Spin starts the worker pool and blocks until the process-wide
// shutdown flag is set and every worker has returned.
func (e *MultiThreadedExecutor) Spin() error {
	g := new(errgroup.Group)
	for i := 0; i < e.workers; i++ {
		g.Go(e.workerLoop)
	}
	return g.Wait()
}

func (e *MultiThreadedExecutor) workerLoop() error {
	for OK() {
		e.selectMu.Lock()
		// Another worker's Wait may already have consumed the shutdown
		// trigger while this one queued for the mutex; check again so no
		// worker enters a Wait that nothing will wake.
		if !OK() {
			e.selectMu.Unlock()
			break
		}
		ae := e.getNextExecutable(-1)
		e.selectMu.Unlock()
		e.executeAnyExecutable(ae)
	}
	return nil
}
