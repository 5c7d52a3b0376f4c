package ros

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// mockRMW is the in-process transport this repository ships to satisfy
// the RMW contract without a real DDS/TCPROS stack, grounded on the
// teacher's channel-driven publisher/subscriber sessions. Every test and
// example in this repository runs against it. It also counts the
// payloads sent on each topic, which SendCount exposes to tests.
type mockRMW struct {
	mu          sync.Mutex
	subsByTopic map[string][]*mockSubscription
	services    map[string]*mockService
	sendCounts  map[string]int
	nextGID     uint64
	wake        chan struct{}
}

// NewMockRMW returns a fresh in-process transport.
func NewMockRMW() RMW {
	return &mockRMW{
		subsByTopic: make(map[string][]*mockSubscription),
		services:    make(map[string]*mockService),
		sendCounts:  make(map[string]int),
		wake:        make(chan struct{}),
	}
}

func (r *mockRMW) wakeAll() {
	r.mu.Lock()
	old := r.wake
	r.wake = make(chan struct{})
	r.mu.Unlock()
	close(old)
}

// SendCount reports how many payloads were sent on a topic through this
// transport, including the intra-process records sent on a
// "<topic>__intra" companion topic (counted under that name).
func (r *mockRMW) SendCount(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sendCounts[topic]
}

func (r *mockRMW) CreatePublisher(topic string, msgType MessageType) (PublisherHandle, error) {
	id := atomic.AddUint64(&r.nextGID, 1)
	return &mockPublisher{rmw: r, topic: topic, gid: fmt.Sprintf("gid-%d", id)}, nil
}

func (r *mockRMW) CreateSubscription(topic string, msgType MessageType) (SubscriptionHandle, error) {
	sub := &mockSubscription{rmw: r, topic: topic, depth: 32}
	r.mu.Lock()
	r.subsByTopic[topic] = append(r.subsByTopic[topic], sub)
	r.mu.Unlock()
	return sub, nil
}

func (r *mockRMW) CreateService(name string, srvType ServiceType) (ServiceHandle, error) {
	svc := &mockService{rmw: r, name: name, pending: make(map[uint64][]byte)}
	r.mu.Lock()
	r.services[name] = svc
	r.mu.Unlock()
	return svc, nil
}

func (r *mockRMW) CreateClient(name string, srvType ServiceType) (ClientHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &mockClient{rmw: r, name: name}, nil
}

func (r *mockRMW) CreateGuardCondition() GuardCondition {
	return &mockGuardCondition{rmw: r}
}

func (r *mockRMW) PublisherGID(pub PublisherHandle) string {
	return pub.GID()
}

func (r *mockRMW) Wait(subs []SubscriptionHandle, guards []GuardCondition, services []ServiceHandle, clients []ClientHandle, timeout time.Duration) {
	const pollInterval = 2 * time.Millisecond
	deadline := time.Now().Add(timeout)
	infinite := timeout < 0

	for {
		if anyReady(subs, guards, services, clients) {
			resetReadyGuards(guards)
			return
		}
		if !infinite {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return
			}
			if remaining > pollInterval {
				remaining = pollInterval
			}
			r.mu.Lock()
			wakeCh := r.wake
			r.mu.Unlock()
			select {
			case <-wakeCh:
			case <-time.After(remaining):
			}
			continue
		}
		r.mu.Lock()
		wakeCh := r.wake
		r.mu.Unlock()
		select {
		case <-wakeCh:
		case <-time.After(pollInterval):
		}
	}
}

// resetReadyGuards clears every guard condition in guards that fired,
// the edge-triggered consumption semantics real rcl_wait implements:
// a guard condition wakes the wait-set once per Trigger, never twice.
func resetReadyGuards(guards []GuardCondition) {
	for _, g := range guards {
		if g.isReady() {
			g.Reset()
		}
	}
}

func anyReady(subs []SubscriptionHandle, guards []GuardCondition, services []ServiceHandle, clients []ClientHandle) bool {
	for _, s := range subs {
		if s.isReady() {
			return true
		}
	}
	for _, g := range guards {
		if g.isReady() {
			return true
		}
	}
	for _, s := range services {
		if s.isReady() {
			return true
		}
	}
	for _, c := range clients {
		if c.isReady() {
			return true
		}
	}
	return false
}

type mockPublisher struct {
	rmw   *mockRMW
	topic string
	gid   string
}

func (p *mockPublisher) Send(payload []byte) error {
	p.rmw.mu.Lock()
	p.rmw.sendCounts[p.topic]++
	targets := append([]*mockSubscription(nil), p.rmw.subsByTopic[p.topic]...)
	p.rmw.mu.Unlock()
	for _, sub := range targets {
		sub.deliver(payload, p.gid)
	}
	p.rmw.wakeAll()
	return nil
}

func (p *mockPublisher) GID() string  { return p.gid }
func (p *mockPublisher) Close() error { return nil }

type mockSample struct {
	payload   []byte
	senderGID string
}

type mockSubscription struct {
	rmw   *mockRMW
	topic string
	depth int

	mu    sync.Mutex
	queue []mockSample
}

func (s *mockSubscription) deliver(payload []byte, senderGID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) >= s.depth {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, mockSample{payload: payload, senderGID: senderGID})
}

func (s *mockSubscription) isReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

func (s *mockSubscription) Take() ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, "", false
	}
	sample := s.queue[0]
	s.queue = s.queue[1:]
	return sample.payload, sample.senderGID, true
}

func (s *mockSubscription) Close() error {
	s.rmw.mu.Lock()
	defer s.rmw.mu.Unlock()
	subs := s.rmw.subsByTopic[s.topic]
	for i, sub := range subs {
		if sub == s {
			s.rmw.subsByTopic[s.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}

type mockRequest struct {
	id      uint64
	payload []byte
}

type mockService struct {
	rmw  *mockRMW
	name string

	mu      sync.Mutex
	nextID  uint64
	queue   []mockRequest
	pending map[uint64][]byte
}

func (s *mockService) isReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

func (s *mockService) TakeRequest() ([]byte, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, 0, false
	}
	req := s.queue[0]
	s.queue = s.queue[1:]
	return req.payload, req.id, true
}

func (s *mockService) SendResponse(requestID uint64, payload []byte) error {
	s.mu.Lock()
	s.pending[requestID] = payload
	s.mu.Unlock()
	s.rmw.wakeAll()
	return nil
}

func (s *mockService) Close() error {
	s.rmw.mu.Lock()
	defer s.rmw.mu.Unlock()
	if s.rmw.services[s.name] == s {
		delete(s.rmw.services, s.name)
	}
	return nil
}

func (s *mockService) enqueue(payload []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.queue = append(s.queue, mockRequest{id: id, payload: payload})
	return id
}

func (s *mockService) takeReply(id uint64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return payload, ok
}

// mockClient looks up its server by name at call time, mirroring the
// out-of-scope discovery the real RMW would perform.
type mockClient struct {
	rmw  *mockRMW
	name string

	mu       sync.Mutex
	inflight map[uint64]*mockService
}

func (c *mockClient) resolveServer() *mockService {
	// The mock transport keeps no explicit service registry beyond the
	// services created through CreateService; clients locate them via a
	// side channel populated by the RMW's shared state.
	c.rmw.mu.Lock()
	defer c.rmw.mu.Unlock()
	return c.rmw.servicesByName(c.name)
}

func (r *mockRMW) servicesByName(name string) *mockService {
	return r.services[name]
}

func (c *mockClient) isReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, svc := range c.inflight {
		if _, ok := svc.takeReplyPeek(id); ok {
			return true
		}
	}
	return false
}

func (c *mockClient) SendRequest(payload []byte) (uint64, error) {
	svc := c.resolveServer()
	if svc == nil {
		return 0, fmt.Errorf("rclgo: no service registered as %q", c.name)
	}
	id := svc.enqueue(payload)
	c.mu.Lock()
	if c.inflight == nil {
		c.inflight = make(map[uint64]*mockService)
	}
	c.inflight[id] = svc
	c.mu.Unlock()
	c.rmw.wakeAll()
	return id, nil
}

func (c *mockClient) TakeResponse(requestID uint64) ([]byte, bool) {
	c.mu.Lock()
	svc, ok := c.inflight[requestID]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	payload, ok := svc.takeReply(requestID)
	if ok {
		c.mu.Lock()
		delete(c.inflight, requestID)
		c.mu.Unlock()
	}
	return payload, ok
}

func (c *mockClient) Close() error { return nil }

func (s *mockService) takeReplyPeek(id uint64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.pending[id]
	return payload, ok
}

type mockGuardCondition struct {
	rmw *mockRMW
	mu  sync.Mutex
	set bool
}

func (g *mockGuardCondition) isReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set
}

func (g *mockGuardCondition) Trigger() error {
	g.mu.Lock()
	g.set = true
	g.mu.Unlock()
	g.rmw.wakeAll()
	return nil
}

// Reset clears a fired guard condition so a subsequent Wait call blocks
// again until the next Trigger. Wait calls this itself on every guard
// it observed ready, so callers never need to.
func (g *mockGuardCondition) Reset() {
	g.mu.Lock()
	g.set = false
	g.mu.Unlock()
}
