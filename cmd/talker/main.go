// Command talker publishes a greeting on /chatter once a second, the
// way test_talker did in the original, driving its own publish loop
// with a Rate and SpinNodeOnce rather than handing the schedule to a
// Timer on a background Executor.
package main

import (
	"fmt"
	"os"
	"time"

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

	node, err := ros.NewNode("talker", os.Args[1:], ros.NodeOptions{})
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

	exec := ros.NewSingleThreadedExecutor()
	rate := ros.NewRate(1)
	count := 0
	for ros.OK() {
		count++
		msg := &std_msgs.String{Data: fmt.Sprintf("hello %d at %s", count, time.Now().Format(time.RFC3339))}
		fmt.Println(msg.Data)
		if err := pub.Publish(msg); err != nil {
			node.Logger().Errorf("publish failed: %v", err)
		}
		exec.SpinNodeOnce(node, time.Duration(cfg.SpinTimeoutMS)*time.Millisecond)
		rate.Sleep()
	}
}
