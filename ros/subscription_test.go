package ros

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSubscriptionRejectsCrossProcessDuplicateOfLocalPublisher covers
// invariant 6: once the intra-process companion record for a sample has
// already been taken, the matching cross-process payload arriving on
// the ordinary handle must be recognized as a duplicate from a local
// publisher and dropped rather than handed to the callback a second
// time.
func TestSubscriptionRejectsCrossProcessDuplicateOfLocalPublisher(t *testing.T) {
	node := newTestNode(t, NodeOptions{IntraProcess: true})

	pub, err := node.CreatePublisher("/t", testInt32Type, 10)
	require.NoError(t, err)

	var calls int
	sub, err := node.CreateSubscription("/t", testInt32Type, nil, func(Message) {
		calls++
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(&testInt{Value: 7}))

	// Drain the intra companion record directly, as if an executor had
	// already dispatched the intra-process delivery for this sample,
	// leaving only the ordinary cross-process payload still queued.
	_, _, ok := sub.intraHandle.Take()
	require.True(t, ok)

	sub.execute()

	assert.Equal(t, 0, calls, "a sample whose sender gid belongs to a local publisher must not reach the callback a second time")
}

// TestSubscriptionDeliversGenuineCrossProcessSample is the negative
// case for the same guard: a payload whose sender gid does not belong
// to any local publisher (the ordinary, non-intra path) is delivered
// normally.
func TestSubscriptionDeliversGenuineCrossProcessSample(t *testing.T) {
	node := newTestNode(t, NodeOptions{IntraProcess: true})

	// A publisher registered directly with the node's RMW, bypassing
	// CreatePublisher, so its gid is never known to the IntraProcessManager
	// and stands in for a genuinely remote sender.
	otherPub, err := node.rmw.CreatePublisher("/t", testInt32Type)
	require.NoError(t, err)

	var got int32 = -1
	sub, err := node.CreateSubscription("/t", testInt32Type, nil, func(msg Message) {
		got = msg.(*testInt).Value
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, (&testInt{Value: 9}).Serialize(&buf))
	require.NoError(t, otherPub.Send(buf.Bytes()))

	sub.execute()

	assert.Equal(t, int32(9), got)
}
