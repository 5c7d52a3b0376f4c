package ros

import "time"

// This file specifies the contract the core requires of the RMW
// (ROS middleware) transport collaborator. Bit-exact wire behavior is
// the RMW's responsibility, not the core's — spec.md section 6 lists
// exactly these operations and nothing more. mockRMW (rmw_mock.go) is
// the one concrete transport this repository ships, since a real
// DDS/TCPROS binding is out of scope.

// WaitableHandle is the opaque per-entity transport handle the RMW
// hands back from CreateSubscription/CreateService/CreateClient/
// CreatePublisher/CreateGuardCondition. The Executor never looks inside
// it; it only ever asks the RMW to wait on a set of handles and reports
// back which ones are ready.
type WaitableHandle interface {
	// isReady reports whether the handle has work pending (or, for a
	// guard condition, has fired); it is not part of the public API.
	isReady() bool
}

// GuardCondition is a fire-once wakeup primitive the wait-set listens
// to, used both for per-executor notify() and for the process-wide
// SIGINT signal.
type GuardCondition interface {
	WaitableHandle
	// Trigger marks the guard condition ready so a blocked Wait call
	// returns. TriggerFailedError must never abort the caller's spin.
	Trigger() error
	// Reset clears a fired guard condition so a later Wait call blocks
	// again until the next Trigger, matching rcl_wait's edge-triggered
	// guard conditions. Wait is responsible for calling this on every
	// guard it observed ready before returning; callers of Wait never
	// need to reset a guard condition themselves.
	Reset()
}

// RMW is the transport contract the core requires. TCPROS/DDS specifics
// live behind this interface; the core only ever calls these methods.
type RMW interface {
	CreatePublisher(topic string, msgType MessageType) (PublisherHandle, error)
	CreateSubscription(topic string, msgType MessageType) (SubscriptionHandle, error)
	CreateService(name string, srvType ServiceType) (ServiceHandle, error)
	CreateClient(name string, srvType ServiceType) (ClientHandle, error)
	CreateGuardCondition() GuardCondition

	// Wait blocks until at least one handle in the union of the four
	// slices is ready, the timeout elapses, or a guard condition in
	// guards fires. Subscription, service and client handles are left
	// untouched; every guard condition observed ready is Reset before
	// Wait returns. It is safe to pass a mix of handles from
	// different entities in a single call.
	Wait(subs []SubscriptionHandle, guards []GuardCondition, services []ServiceHandle, clients []ClientHandle, timeout time.Duration)

	// PublisherGID returns an opaque, comparable identifier for a
	// publisher, used by matches_any_publishers for cross-process dedup.
	PublisherGID(pub PublisherHandle) string
}

// PublisherHandle is the transport-level publisher handle. Publishers are
// never part of a wait-set — only subscriptions, services, clients,
// timers and guard conditions are — so it does not implement
// WaitableHandle.
type PublisherHandle interface {
	Send(payload []byte) error
	GID() string
	Close() error
}

// SubscriptionHandle is the transport-level subscription handle.
type SubscriptionHandle interface {
	WaitableHandle
	// Take returns the oldest buffered sample, if any, along with the
	// gid of the publisher that sent it.
	Take() (payload []byte, senderGID string, ok bool)
	Close() error
}

// ServiceHandle is the transport-level service (server) handle.
type ServiceHandle interface {
	WaitableHandle
	TakeRequest() (payload []byte, requestID uint64, ok bool)
	SendResponse(requestID uint64, payload []byte) error
	Close() error
}

// ClientHandle is the transport-level client handle.
type ClientHandle interface {
	WaitableHandle
	SendRequest(payload []byte) (requestID uint64, err error)
	TakeResponse(requestID uint64) (payload []byte, ok bool)
	Close() error
}
