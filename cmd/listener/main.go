// Command listener subscribes to /chatter and prints whatever talker
// publishes, the way test_listener did in the original, spun by a
// SingleThreadedExecutor instead of node.Spin().
package main

import (
	"fmt"
	"os"

	"github.com/edwinhayes/rclgo/ros"
	"github.com/edwinhayes/rclgo/std_msgs"
)

func callback(msg ros.Message) {
	fmt.Printf("received: %s\n", msg.(*std_msgs.String).Data)
}

func main() {
	ros.Init(ros.NewMockRMW())
	defer ros.Shutdown()

	node, err := ros.NewNode("listener", os.Args[1:], ros.NodeOptions{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create node:", err)
		os.Exit(1)
	}
	defer node.Shutdown()

	if _, err := node.CreateSubscription("/chatter", std_msgs.TypeOfString(), nil, callback); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create subscription:", err)
		os.Exit(1)
	}

	exec := ros.NewSingleThreadedExecutor()
	exec.AddNode(node, false)
	exec.Spin()
}
