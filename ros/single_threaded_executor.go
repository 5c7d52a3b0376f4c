package ros

import "time"

// SingleThreadedExecutor drives the abstract Executor's selection loop
// from exactly one goroutine. Because no other goroutine ever observes
// a group's canBeTakenFrom flag, mutual exclusion is automatic without
// this variant doing anything extra.
type SingleThreadedExecutor struct {
	*Executor
}

func NewSingleThreadedExecutor() *SingleThreadedExecutor {
	return &SingleThreadedExecutor{Executor: NewExecutor()}
}

// Spin loops get_next_executable/execute_any_executable until the
// process-wide shutdown flag is set.
func (e *SingleThreadedExecutor) Spin() {
	for OK() {
		ae := e.getNextExecutable(-1)
		e.executeAnyExecutable(ae)
	}
}

// SpinSome drains only executables already ready at entry.
func (e *SingleThreadedExecutor) SpinSome() { e.spinSome() }

// SpinNodeOnce temporarily adds node, waits up to timeout for work,
// dispatches at most one executable, then removes the node.
func (e *SingleThreadedExecutor) SpinNodeOnce(node *defaultNode, timeout time.Duration) {
	e.spinNodeOnce(node, timeout)
}
