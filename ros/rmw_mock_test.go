package ros

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRMWPublishSubscribeDeliversPayload(t *testing.T) {
	rmw := NewMockRMW()
	pub, err := rmw.CreatePublisher("/t", testInt32Type)
	require.NoError(t, err)
	sub, err := rmw.CreateSubscription("/t", testInt32Type)
	require.NoError(t, err)

	require.NoError(t, pub.Send([]byte("payload")))
	require.True(t, sub.isReady())

	payload, gid, ok := sub.Take()
	require.True(t, ok)
	assert.Equal(t, "payload", string(payload))
	assert.Equal(t, pub.GID(), gid)
}

func TestMockRMWSubscriptionDropsOldestWhenFull(t *testing.T) {
	rmw := NewMockRMW()
	pub, err := rmw.CreatePublisher("/t", testInt32Type)
	require.NoError(t, err)
	sub, err := rmw.CreateSubscription("/t", testInt32Type)
	require.NoError(t, err)
	mockSub := sub.(*mockSubscription)
	mockSub.depth = 2

	require.NoError(t, pub.Send([]byte("1")))
	require.NoError(t, pub.Send([]byte("2")))
	require.NoError(t, pub.Send([]byte("3")))

	payload, _, ok := sub.Take()
	require.True(t, ok)
	assert.Equal(t, "2", string(payload))
}

func TestMockRMWSendCountTracksPublishes(t *testing.T) {
	mrmw := NewMockRMW()
	pub, err := mrmw.CreatePublisher("/t", testInt32Type)
	require.NoError(t, err)
	require.NoError(t, pub.Send([]byte("a")))
	require.NoError(t, pub.Send([]byte("b")))
	assert.Equal(t, 2, mrmw.(*mockRMW).SendCount("/t"))
}

func TestMockRMWServiceRequestResponse(t *testing.T) {
	rmw := NewMockRMW()
	svc, err := rmw.CreateService("/add", testAddSrv)
	require.NoError(t, err)
	client, err := rmw.CreateClient("/add", testAddSrv)
	require.NoError(t, err)

	reqID, err := client.SendRequest([]byte("req"))
	require.NoError(t, err)
	require.True(t, svc.isReady())

	payload, id, ok := svc.TakeRequest()
	require.True(t, ok)
	assert.Equal(t, "req", string(payload))
	require.NoError(t, svc.SendResponse(id, []byte("res")))

	require.True(t, client.isReady())
	resp, ok := client.TakeResponse(reqID)
	require.True(t, ok)
	assert.Equal(t, "res", string(resp))
}

func TestMockRMWClientNoServerRegistered(t *testing.T) {
	rmw := NewMockRMW()
	client, err := rmw.CreateClient("/missing", testAddSrv)
	require.NoError(t, err)
	_, err = client.SendRequest([]byte("req"))
	assert.Error(t, err)
}

func TestMockRMWGuardConditionTrigger(t *testing.T) {
	rmw := NewMockRMW()
	guard := rmw.CreateGuardCondition()
	assert.False(t, guard.isReady())
	require.NoError(t, guard.Trigger())
	assert.True(t, guard.isReady())
}

// TestMockRMWWaitResetsGuardConditionOnReturn covers the
// fire-once/auto-reset contract: once Wait has observed a guard
// condition ready and returned, a later Wait call on the same guard
// must block again until the next Trigger, rather than returning
// immediately forever.
func TestMockRMWWaitResetsGuardConditionOnReturn(t *testing.T) {
	rmw := NewMockRMW()
	guard := rmw.CreateGuardCondition()
	require.NoError(t, guard.Trigger())

	rmw.Wait(nil, []GuardCondition{guard}, nil, nil, 500*time.Millisecond)
	assert.False(t, guard.isReady(), "Wait must clear a guard condition it observed ready before returning")

	start := time.Now()
	rmw.Wait(nil, []GuardCondition{guard}, nil, nil, 20*time.Millisecond)
	assert.True(t, time.Since(start) >= 20*time.Millisecond, "a reset guard condition must not wake a later Wait call on its own")
}

func TestMockRMWWaitReturnsOnReady(t *testing.T) {
	rmw := NewMockRMW()
	pub, err := rmw.CreatePublisher("/t", testInt32Type)
	require.NoError(t, err)
	sub, err := rmw.CreateSubscription("/t", testInt32Type)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		rmw.Wait([]SubscriptionHandle{sub}, nil, nil, nil, 500*time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, pub.Send([]byte("hi")))

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Wait did not return promptly after publish")
	}
}

func TestMockRMWWaitRespectsTimeout(t *testing.T) {
	rmw := NewMockRMW()
	start := time.Now()
	rmw.Wait(nil, nil, nil, nil, 20*time.Millisecond)
	elapsed := time.Since(start)
	assert.True(t, elapsed >= 20*time.Millisecond)
	assert.True(t, elapsed < 200*time.Millisecond)
}
