// Package convert composes a rosbag1 reader with a rosbag2 writer (or
// vice versa), transcoding each message at the wire level and bridging
// each container format's connection metadata to the other's.
package convert

import "strings"

// ros1ToRos2Name upgrades a ROS1-dialect type name ("pkg/Name") to the
// registry's canonical ROS2 form ("pkg/msg/Name").
func ros1ToRos2Name(name string) string {
	parts := strings.SplitN(name, "/", 2)
	if len(parts) != 2 {
		return name
	}
	return parts[0] + "/msg/" + parts[1]
}

// ros2ToRos1Name drops the "/msg/" infix from a canonical ROS2 type name,
// the form rosbag1 connection headers use.
func ros2ToRos1Name(name string) string {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return name
	}
	last := name[i+1:]
	pkg := name[:i]
	pkg = strings.TrimSuffix(pkg, "/msg")
	return pkg + "/" + last
}
