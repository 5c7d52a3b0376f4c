package ros

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T, opts NodeOptions) *defaultNode {
	t.Helper()
	if opts.RMW == nil {
		opts.RMW = NewMockRMW()
	}
	node, err := newDefaultNode("test_node", nil, opts)
	require.NoError(t, err)
	return node
}

func TestExecutorSelectionPriorityTimerBeforeSubscription(t *testing.T) {
	node := newTestNode(t, NodeOptions{})
	var order []string

	pub, err := node.CreatePublisher("/t", testInt32Type, 10)
	require.NoError(t, err)
	_, err = node.CreateSubscription("/t", testInt32Type, nil, func(Message) {
		order = append(order, "subscription")
	})
	require.NoError(t, err)
	_, err = node.CreateTimer(NewDuration(0, 1), nil, func() {
		order = append(order, "timer")
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(&testInt{Value: 1}))
	time.Sleep(2 * time.Millisecond) // let the 1ns timer become overdue

	exec := NewSingleThreadedExecutor()
	exec.AddNode(node, false)

	exec.SpinSome()

	require.Len(t, order, 2)
	assert.Equal(t, "timer", order[0], "timer must dispatch before the ready subscription")
	assert.Equal(t, "subscription", order[1])
}

func TestExecutorInsertionOrderTiebreak(t *testing.T) {
	node := newTestNode(t, NodeOptions{})
	var order []string

	pub1, err := node.CreatePublisher("/a", testInt32Type, 10)
	require.NoError(t, err)
	pub2, err := node.CreatePublisher("/b", testInt32Type, 10)
	require.NoError(t, err)

	_, err = node.CreateSubscription("/a", testInt32Type, nil, func(Message) {
		order = append(order, "first")
	})
	require.NoError(t, err)
	_, err = node.CreateSubscription("/b", testInt32Type, nil, func(Message) {
		order = append(order, "second")
	})
	require.NoError(t, err)

	require.NoError(t, pub1.Publish(&testInt{Value: 1}))
	require.NoError(t, pub2.Publish(&testInt{Value: 2}))

	exec := NewSingleThreadedExecutor()
	exec.AddNode(node, false)
	exec.SpinSome()
	exec.SpinSome()

	require.Equal(t, []string{"first", "second"}, order)
}

func TestExecutorMutualExclusionSerializesGroup(t *testing.T) {
	node := newTestNode(t, NodeOptions{})
	group := node.CreateCallbackGroup(MutuallyExclusive)

	var concurrent int32
	var maxConcurrent int32
	cb := func(Message) {
		cur := atomic.AddInt32(&concurrent, 1)
		for {
			m := atomic.LoadInt32(&maxConcurrent)
			if cur <= m || atomic.CompareAndSwapInt32(&maxConcurrent, m, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&concurrent, -1)
	}

	pub1, err := node.CreatePublisher("/a", testInt32Type, 32)
	require.NoError(t, err)
	pub2, err := node.CreatePublisher("/b", testInt32Type, 32)
	require.NoError(t, err)
	_, err = node.CreateSubscription("/a", testInt32Type, group, cb)
	require.NoError(t, err)
	_, err = node.CreateSubscription("/b", testInt32Type, group, cb)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, pub1.Publish(&testInt{Value: int32(i)}))
		require.NoError(t, pub2.Publish(&testInt{Value: int32(i)}))
	}

	exec := NewMultiThreadedExecutor(2)
	exec.AddNode(node, false)

	Init(NewMockRMW())
	defer Shutdown()

	done := make(chan struct{})
	go func() {
		exec.Spin()
		close(done)
	}()

	start := time.Now()
	for atomic.LoadInt32(&concurrent) == 0 && time.Since(start) < time.Second {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)
	Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executor did not stop after shutdown")
	}

	assert.LessOrEqual(t, int32(1), maxConcurrent)
	assert.Equal(t, int32(1), maxConcurrent, "a mutually-exclusive group must never run two callbacks at once")
}

func TestExecutorReentrantAllowsConcurrency(t *testing.T) {
	node := newTestNode(t, NodeOptions{})
	group := node.CreateCallbackGroup(Reentrant)

	var concurrent int32
	var maxConcurrent int32
	cb := func(Message) {
		cur := atomic.AddInt32(&concurrent, 1)
		for {
			m := atomic.LoadInt32(&maxConcurrent)
			if cur <= m || atomic.CompareAndSwapInt32(&maxConcurrent, m, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&concurrent, -1)
	}

	pub1, err := node.CreatePublisher("/a", testInt32Type, 32)
	require.NoError(t, err)
	pub2, err := node.CreatePublisher("/b", testInt32Type, 32)
	require.NoError(t, err)
	_, err = node.CreateSubscription("/a", testInt32Type, group, cb)
	require.NoError(t, err)
	_, err = node.CreateSubscription("/b", testInt32Type, group, cb)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, pub1.Publish(&testInt{Value: int32(i)}))
		require.NoError(t, pub2.Publish(&testInt{Value: int32(i)}))
	}

	exec := NewMultiThreadedExecutor(2)
	exec.AddNode(node, false)

	Init(NewMockRMW())
	defer Shutdown()

	done := make(chan struct{})
	go func() {
		exec.Spin()
		close(done)
	}()

	time.Sleep(300 * time.Millisecond)
	Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executor did not stop after shutdown")
	}

	assert.Equal(t, int32(2), maxConcurrent, "a reentrant group with 2 workers may run 2 callbacks at once")
}

func TestExecutorNotifyWakesBlockedWait(t *testing.T) {
	exec := NewExecutor()
	node := newTestNode(t, NodeOptions{RMW: NewMockRMW()})
	exec.AddNode(node, false)

	done := make(chan struct{})
	go func() {
		exec.getNextExecutable(time.Second)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	start := time.Now()
	exec.notify()

	select {
	case <-done:
		assert.Less(t, time.Since(start), 200*time.Millisecond)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("notify did not wake a blocked wait in time")
	}
}

func TestExecutorTimerBoundsWaitTimeout(t *testing.T) {
	node := newTestNode(t, NodeOptions{})
	_, err := node.CreateTimer(NewDuration(0, 20_000_000), nil, func() {}) // 20ms
	require.NoError(t, err)

	exec := NewExecutor()
	exec.AddNode(node, false)

	start := time.Now()
	exec.getNextExecutable(time.Second)
	elapsed := time.Since(start)
	assert.Less(t, elapsed, 200*time.Millisecond, "wait must not block past the earliest timer deadline")
}

func TestExecutorShutdownPropagatesToSpin(t *testing.T) {
	node := newTestNode(t, NodeOptions{})
	exec := NewSingleThreadedExecutor()
	exec.AddNode(node, false)

	Init(NewMockRMW())
	defer Shutdown()

	done := make(chan struct{})
	go func() {
		exec.Spin()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	Shutdown()

	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("spin did not return within the bounded interval after shutdown")
	}
	assert.False(t, OK())
}
