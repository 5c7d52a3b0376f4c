package ros

import (
	"fmt"

	"github.com/pkg/errors"
)

// TransportCreationFailedError is returned when the RMW collaborator
// refuses to create a handle for a publisher, subscription, service,
// client or guard condition. The node that requested the entity remains
// usable.
type TransportCreationFailedError struct {
	Kind string
	Name string
	Err  error
}

func (e *TransportCreationFailedError) Error() string {
	return fmt.Sprintf("rclgo: could not create %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *TransportCreationFailedError) Unwrap() error { return e.Err }

func newTransportCreationFailedError(kind, name string, err error) error {
	return &TransportCreationFailedError{Kind: kind, Name: name, Err: err}
}

// GroupNotInNodeError is returned when create_* is called with a
// CallbackGroup that belongs to a different Node.
type GroupNotInNodeError struct {
	Node string
}

func (e *GroupNotInNodeError) Error() string {
	return fmt.Sprintf("rclgo: callback group does not belong to node %q", e.Node)
}

// IntraProcessUnavailableError is returned by every IntraProcessManager
// operation performed after the manager has been destroyed. Because
// entities only resolve the manager lazily through a weak handle, this
// is the normal teardown-race signal, not a bug.
type IntraProcessUnavailableError struct {
	Op string
}

func (e *IntraProcessUnavailableError) Error() string {
	return fmt.Sprintf("rclgo: intra-process manager unavailable during %s", e.Op)
}

// TypeMismatchError is returned when an intra-process publish is called
// with a message whose runtime type differs from the publisher's
// declared type.
type TypeMismatchError struct {
	Want, Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("rclgo: published type %q is incompatible with publisher type %q", e.Got, e.Want)
}

// ErrNullMessage is returned when Publish is called with a nil
// message.
var ErrNullMessage = errors.New("rclgo: cannot publish a nil message")

// TriggerFailedError wraps a guard-condition trigger failure. It is
// logged and swallowed by the Executor — shutdown/notify is best-effort
// and must never abort a spin.
type TriggerFailedError struct {
	Err error
}

func (e *TriggerFailedError) Error() string {
	return fmt.Sprintf("rclgo: failed to trigger guard condition: %v", e.Err)
}

func (e *TriggerFailedError) Unwrap() error { return e.Err }

// ErrInterrupted is not a failure: it is what SleepForErr returns to
// signal that shutdown woke the sleep before its duration elapsed.
var ErrInterrupted = errors.New("rclgo: sleep interrupted by shutdown")
