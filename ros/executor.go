package ros

import (
	"sync"
	"time"
)

// entityRef pairs a live entity with the group and node it was
// scanned from, the bookkeeping the selection algorithm needs without
// requiring every entity to carry its own back-pointers.
type entityRef struct {
	group *CallbackGroup
	node  *defaultNode
}

// Executor is the abstract work-dispatch engine shared by every
// concrete variant. It is agnostic to how many dispatcher goroutines
// drive it: SingleThreadedExecutor uses exactly one, MultiThreadedExecutor
// a worker pool, both built on top of getNextExecutable /
// executeAnyExecutable below.
//
// Every node added to a single Executor is assumed to share one RMW
// transport instance, since wait_for_work issues one Wait call across
// the union of their entities' handles.
type Executor struct {
	mu    sync.Mutex
	nodes []*defaultNode

	rmw            RMW
	memoryStrategy MemoryStrategy
	interrupt      GuardCondition

	logger Logger
}

// NewExecutor constructs an abstract Executor. Callers normally use
// NewSingleThreadedExecutor or NewMultiThreadedExecutor instead of this
// directly.
func NewExecutor() *Executor {
	return &Executor{
		memoryStrategy: NewDefaultMemoryStrategy(),
		logger:         newComponentLogger(NewDefaultLogger(), "executor", ""),
	}
}

// AddNode registers node with this executor. If notify is true, the
// executor's interrupt guard condition is triggered so a concurrently
// blocked wait_for_work returns promptly and rebuilds its wait-set
// against the new node set.
func (e *Executor) AddNode(node *defaultNode, notify bool) {
	e.mu.Lock()
	if e.rmw == nil {
		e.rmw = node.rmw
		e.interrupt = e.rmw.CreateGuardCondition()
	}
	e.nodes = append(e.nodes, node)
	e.mu.Unlock()
	if notify {
		e.notify()
	}
}

// RemoveNode unregisters node. If notify is true, the interrupt guard
// condition is triggered the same way AddNode's is.
func (e *Executor) RemoveNode(node *defaultNode, notify bool) {
	e.mu.Lock()
	for i, n := range e.nodes {
		if n == node {
			e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)
			break
		}
	}
	e.mu.Unlock()
	if notify {
		e.notify()
	}
}

func (e *Executor) notify() {
	e.mu.Lock()
	guard := e.interrupt
	e.mu.Unlock()
	if guard == nil {
		return
	}
	if err := guard.Trigger(); err != nil {
		e.logger.Warnf("failed to trigger interrupt guard condition: %v", (&TriggerFailedError{Err: err}).Unwrap())
	}
}

// SetMemoryStrategy hot-swaps the wait-set allocation policy. Callers
// must ensure no concurrent spin is in progress.
func (e *Executor) SetMemoryStrategy(ms MemoryStrategy) {
	e.mu.Lock()
	e.memoryStrategy = ms
	e.mu.Unlock()
}

// snapshot walks every live node and callback group, collecting the
// live entities of each kind along with which group/node they belong
// to. A dead weak reference would be pruned here; this implementation
// holds plain pointers kept alive by the node, so nothing to prune.
func (e *Executor) snapshot() (subs []*Subscription, subRefs []entityRef,
	timers []*Timer, timerRefs []entityRef,
	services []*ServiceServer, serviceRefs []entityRef,
	clients []*Client, clientRefs []entityRef) {

	e.mu.Lock()
	nodes := append([]*defaultNode(nil), e.nodes...)
	e.mu.Unlock()

	for _, node := range nodes {
		for _, g := range node.callbackGroups() {
			for _, s := range g.getSubscriptionPtrs() {
				subs = append(subs, s)
				subRefs = append(subRefs, entityRef{group: g, node: node})
			}
			for _, t := range g.getTimerPtrs() {
				timers = append(timers, t)
				timerRefs = append(timerRefs, entityRef{group: g, node: node})
			}
			for _, svc := range g.getServicePtrs() {
				services = append(services, svc)
				serviceRefs = append(serviceRefs, entityRef{group: g, node: node})
			}
			for _, c := range g.getClientPtrs() {
				clients = append(clients, c)
				clientRefs = append(clientRefs, entityRef{group: g, node: node})
			}
		}
	}
	return
}

// getNextExecutable builds the wait-set, blocks on the RMW for at most
// min(timeout, earliest timer deadline), and returns the single next
// executable to dispatch in fixed priority order (timer, subscription,
// service, client), or nil if nothing was ready when the wait
// returned. The returned executable's group token has already been
// claimed for a mutually-exclusive group.
func (e *Executor) getNextExecutable(timeout time.Duration) *anyExecutable {
	subs, subRefs, timers, timerRefs, services, serviceRefs, clients, clientRefs := e.snapshot()

	e.mu.Lock()
	rmw := e.rmw
	ms := e.memoryStrategy
	interrupt := e.interrupt
	e.mu.Unlock()
	if rmw == nil {
		return nil
	}

	sigint := sigintGuardCondition()

	ms.clearHandles()
	subHandles := ms.subscriptionSlots(len(subs) * 2)
	for _, s := range subs {
		subHandles = append(subHandles, s.waitHandles()...)
	}
	guardHandles := ms.guardConditionSlots(2)
	if interrupt != nil {
		guardHandles = append(guardHandles, interrupt)
	}
	if sigint != nil {
		guardHandles = append(guardHandles, sigint)
	}
	serviceHandles := ms.serviceSlots(len(services))
	for _, s := range services {
		serviceHandles = append(serviceHandles, s.handle)
	}
	clientHandles := ms.clientSlots(len(clients))
	for _, c := range clients {
		clientHandles = append(clientHandles, c.handle)
	}

	waitTimeout := timeout
	if earliest, ok := getEarliestTimer(timers); ok {
		asGo := durationToGo(earliest)
		if timeout < 0 || asGo < timeout {
			waitTimeout = asGo
		}
	}

	rmw.Wait(subHandles, guardHandles, serviceHandles, clientHandles, waitTimeout)

	// 1. Timers, fixed priority first.
	for i, t := range timers {
		if !t.isReady() {
			continue
		}
		g := timerRefs[i].group
		if g.tryTake() {
			return &anyExecutable{timer: t, group: g, node: timerRefs[i].node}
		}
	}
	// 2. Subscriptions.
	for i, s := range subs {
		if !s.isReady() {
			continue
		}
		g := subRefs[i].group
		if g.tryTake() {
			return &anyExecutable{subscription: s, group: g, node: subRefs[i].node}
		}
	}
	// 3. Services.
	for i, s := range services {
		if !s.isReady() {
			continue
		}
		g := serviceRefs[i].group
		if g.tryTake() {
			return &anyExecutable{service: s, group: g, node: serviceRefs[i].node}
		}
	}
	// 4. Clients.
	for i, c := range clients {
		if !c.isReady() {
			continue
		}
		g := clientRefs[i].group
		if g.tryTake() {
			return &anyExecutable{client: c, group: g, node: clientRefs[i].node}
		}
	}
	return nil
}

// executeAnyExecutable dispatches ae's populated slot and restores its
// group's token once the callback returns, if the group is mutually
// exclusive.
func (e *Executor) executeAnyExecutable(ae *anyExecutable) {
	if ae == nil || ae.empty() {
		return
	}
	defer ae.group.release()

	switch {
	case ae.timer != nil:
		ae.timer.fire()
	case ae.subscription != nil:
		ae.subscription.execute()
	case ae.service != nil:
		ae.service.execute()
	case ae.client != nil:
		ae.client.execute()
	}
}

// spinNodeOnceNanoseconds temporarily adds node, waits up to ns
// nanoseconds for work, dispatches at most one executable, then
// removes the node.
func (e *Executor) spinNodeOnceNanoseconds(node *defaultNode, ns int64) {
	e.AddNode(node, true)
	defer e.RemoveNode(node, true)
	ae := e.getNextExecutable(time.Duration(ns))
	e.executeAnyExecutable(ae)
}

// spinNodeOnce is the templated-timeout convenience wrapper around
// spinNodeOnceNanoseconds found in the original source.
func (e *Executor) spinNodeOnce(node *defaultNode, timeout time.Duration) {
	e.spinNodeOnceNanoseconds(node, timeout.Nanoseconds())
}

// spinSome drains only the executables already ready at entry; it
// never blocks waiting for new ones.
func (e *Executor) spinSome() {
	for {
		ae := e.getNextExecutable(0)
		if ae == nil {
			return
		}
		e.executeAnyExecutable(ae)
	}
}

// spinNodeSome behaves like spinSome but scoped to a single
// temporarily-added node, the counterpart the original source exposes
// alongside spin_node_once.
func (e *Executor) spinNodeSome(node *defaultNode) {
	e.AddNode(node, true)
	defer e.RemoveNode(node, true)
	e.spinSome()
}
