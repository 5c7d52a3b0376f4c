package ros

// anyExecutable is one dispatchable unit of work: exactly one of the
// four entity fields is set, together with the callback group and node
// it was drawn from. Both are held for the duration of execution so a
// concurrent node/group teardown cannot invalidate the dispatch
// halfway through.
type anyExecutable struct {
	subscription *Subscription
	timer        *Timer
	service      *ServiceServer
	client       *Client

	group *CallbackGroup
	node  *defaultNode
}

func (a *anyExecutable) empty() bool {
	return a.subscription == nil && a.timer == nil && a.service == nil && a.client == nil
}
