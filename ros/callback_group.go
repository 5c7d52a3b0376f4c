package ros

import "sync/atomic"

// CallbackGroupType selects the execution discipline shared by every
// entity registered with a group.
type CallbackGroupType int

const (
	// MutuallyExclusive serializes dispatch: the executor may take an
	// executable from the group only while its token is available.
	MutuallyExclusive CallbackGroupType = iota
	// Reentrant lets the executor dispatch any number of the group's
	// executables concurrently; the token is never consulted.
	Reentrant
)

func (t CallbackGroupType) String() string {
	if t == Reentrant {
		return "reentrant"
	}
	return "mutually_exclusive"
}

// weakSubscription and weakTimer stand in for the language's usual weak
// reference: the entity is independently owned by the node, and the
// group only ever sees it while the node keeps it alive. Since this
// core has no separate finalizer thread, the "weak" collections here
// hold plain pointers but are conceptually pruned on the node's say-so
// rather than kept alive by the group.
type weakSubscription = *Subscription
type weakTimer = *Timer

// CallbackGroup collects entities that share an execution discipline.
// Subscriptions and timers are logically weak references (owned by the
// node); services and clients are shared, mirroring the asymmetry in
// the upstream source where services/clients have no independent
// lifetime manager. See DESIGN.md for the decision to keep this
// asymmetry rather than equalize it.
type CallbackGroup struct {
	kind CallbackGroupType

	subscriptions []weakSubscription
	timers        []weakTimer
	services      []*ServiceServer
	clients       []*Client

	// canBeTakenFrom is the group's execution token. 1 means available.
	canBeTakenFrom int32
}

// NewCallbackGroup constructs a group of the given discipline. Nodes
// create a default MutuallyExclusive group for themselves; users may
// create additional groups of either kind and pass them to create_*.
func NewCallbackGroup(kind CallbackGroupType) *CallbackGroup {
	return &CallbackGroup{kind: kind, canBeTakenFrom: 1}
}

func (g *CallbackGroup) Type() CallbackGroupType { return g.kind }

func (g *CallbackGroup) addSubscription(s *Subscription) { g.subscriptions = append(g.subscriptions, s) }
func (g *CallbackGroup) addTimer(t *Timer)               { g.timers = append(g.timers, t) }
func (g *CallbackGroup) addService(s *ServiceServer)           { g.services = append(g.services, s) }
func (g *CallbackGroup) addClient(c *Client)             { g.clients = append(g.clients, c) }

func (g *CallbackGroup) getSubscriptionPtrs() []weakSubscription { return g.subscriptions }
func (g *CallbackGroup) getTimerPtrs() []weakTimer               { return g.timers }
func (g *CallbackGroup) getServicePtrs() []*ServiceServer              { return g.services }
func (g *CallbackGroup) getClientPtrs() []*Client                { return g.clients }

// canTake reports whether an executable may currently be taken from
// this group, without side effects. Reentrant groups are always
// available.
func (g *CallbackGroup) canTake() bool {
	if g.kind == Reentrant {
		return true
	}
	return atomic.LoadInt32(&g.canBeTakenFrom) == 1
}

// tryTake atomically clears the token for a mutually-exclusive group,
// returning whether the caller won it. Reentrant groups always
// succeed without touching the token.
func (g *CallbackGroup) tryTake() bool {
	if g.kind == Reentrant {
		return true
	}
	return atomic.CompareAndSwapInt32(&g.canBeTakenFrom, 1, 0)
}

// release restores the token after a mutually-exclusive dispatch
// completes. No-op for reentrant groups.
func (g *CallbackGroup) release() {
	if g.kind == Reentrant {
		return
	}
	atomic.StoreInt32(&g.canBeTakenFrom, 1)
}
