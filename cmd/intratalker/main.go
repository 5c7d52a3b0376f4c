// Command intratalker runs a publisher and a subscriber on the same
// node with intra-process routing enabled, showing the subscriber
// receive the published message value itself through the intra-process
// path; the serialized copy the publisher also sends on the main topic
// is recognized as its own and dropped.
package main

import (
	"fmt"
	"os"

	"github.com/edwinhayes/rclgo/ros"
	"github.com/edwinhayes/rclgo/std_msgs"
)

func main() {
	ros.Init(ros.NewMockRMW())
	defer ros.Shutdown()

	cfg, err := ros.LoadExecutorConfig("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load executor config:", err)
		os.Exit(1)
	}

	node, err := ros.NewNode("intratalker", os.Args[1:], ros.NodeOptions{IntraProcess: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create node:", err)
		os.Exit(1)
	}
	defer node.Shutdown()

	pub, err := node.CreatePublisher("/chatter", std_msgs.TypeOfString(), cfg.DefaultDepth)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create publisher:", err)
		os.Exit(1)
	}

	count := 0
	_, err = node.CreateSubscription("/chatter", std_msgs.TypeOfString(), nil, func(msg ros.Message) {
		fmt.Printf("received via the intra-process path: %s\n", msg.(*std_msgs.String).Data)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create subscription:", err)
		os.Exit(1)
	}

	_, err = node.CreateTimer(ros.NewDuration(1, 0), nil, func() {
		count++
		msg := &std_msgs.String{Data: fmt.Sprintf("hello %d", count)}
		if err := pub.Publish(msg); err != nil {
			node.Logger().Errorf("publish failed: %v", err)
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create timer:", err)
		os.Exit(1)
	}

	exec := ros.NewMultiThreadedExecutor(cfg.Workers)
	exec.AddNode(node, false)
	exec.Spin()
}
