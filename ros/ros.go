// Package ros implements the core of a publish/subscribe robotics
// middleware client library: an Executor that multiplexes readiness
// across subscriptions, timers, services and clients belonging to one
// or more Nodes, and an IntraProcessManager that shortcuts same-process
// publish/subscribe pairs around the RMW transport.
package ros

// Node is the public handle returned by NewNode. Most of the package's
// functionality (creating entities, the Executor, the
// IntraProcessManager) operates on the concrete *defaultNode it wraps;
// Node exists so application code has a name that does not leak the
// "default" implementation-detail prefix.
type Node = defaultNode

// NewNode constructs a Node named name, qualified against its
// namespace the way ROS-style name resolution always has, with
// remappings/parameters/specials parsed out of args the same way a
// process's non-flag command-line arguments are in the original.
func NewNode(name string, args []string, opts NodeOptions) (*Node, error) {
	return newDefaultNode(name, args, opts)
}
