package typesys

// builtinSources lists the built-in message set as .msg-dialect text,
// keyed by fully-qualified name. This is a representative slice of the
// package list in spec.md §6 — not the full ROS2 distribution (thousands
// of files) — chosen to exercise every field shape a codec must handle:
// primitives, strings, std_msgs/Header (its ROS1 "seq" quirk is handled
// by the transcode package, not here), fixed arrays, unbounded sequences,
// nested messages, and constants. No bounded sequence is included. Callers extend the
// registry with Register for anything else; that is the supported path,
// per spec.md §4.2.
var builtinSources = map[string]string{
	"builtin_interfaces/msg/Time": "" +
		"int32 sec\n" +
		"uint32 nanosec\n",

	"builtin_interfaces/msg/Duration": "" +
		"int32 sec\n" +
		"uint32 nanosec\n",

	"std_msgs/msg/Header": "" +
		"builtin_interfaces/msg/Time stamp\n" +
		"string frame_id\n",

	"std_msgs/msg/String": "" +
		"string data\n",

	"std_msgs/msg/Bool": "" +
		"bool data\n",

	"std_msgs/msg/Int32": "" +
		"int32 data\n",

	"std_msgs/msg/Float64": "" +
		"float64 data\n",

	"std_msgs/msg/ColorRGBA": "" +
		"float32 r\n" +
		"float32 g\n" +
		"float32 b\n" +
		"float32 a\n",

	"geometry_msgs/msg/Vector3": "" +
		"float64 x\n" +
		"float64 y\n" +
		"float64 z\n",

	"geometry_msgs/msg/Point": "" +
		"float64 x\n" +
		"float64 y\n" +
		"float64 z\n",

	"geometry_msgs/msg/Quaternion": "" +
		"float64 x\n" +
		"float64 y\n" +
		"float64 z\n" +
		"float64 w\n",

	"geometry_msgs/msg/Pose": "" +
		"geometry_msgs/msg/Point position\n" +
		"geometry_msgs/msg/Quaternion orientation\n",

	"geometry_msgs/msg/PoseStamped": "" +
		"Header header\n" +
		"geometry_msgs/msg/Pose pose\n",

	"geometry_msgs/msg/Twist": "" +
		"geometry_msgs/msg/Vector3 linear\n" +
		"geometry_msgs/msg/Vector3 angular\n",

	"geometry_msgs/msg/Transform": "" +
		"geometry_msgs/msg/Vector3 translation\n" +
		"geometry_msgs/msg/Quaternion rotation\n",

	"geometry_msgs/msg/TransformStamped": "" +
		"Header header\n" +
		"string child_frame_id\n" +
		"geometry_msgs/msg/Transform transform\n",

	"sensor_msgs/msg/Imu": "" +
		"Header header\n" +
		"geometry_msgs/msg/Quaternion orientation\n" +
		"float64[9] orientation_covariance\n" +
		"geometry_msgs/msg/Vector3 angular_velocity\n" +
		"float64[9] angular_velocity_covariance\n" +
		"geometry_msgs/msg/Vector3 linear_acceleration\n" +
		"float64[9] linear_acceleration_covariance\n",

	"sensor_msgs/msg/PointField": "" +
		"string name\n" +
		"uint32 offset\n" +
		"uint8 datatype\n" +
		"uint32 count\n",

	"sensor_msgs/msg/PointCloud2": "" +
		"Header header\n" +
		"uint32 height\n" +
		"uint32 width\n" +
		"sensor_msgs/msg/PointField[] fields\n" +
		"bool is_bigendian\n" +
		"uint32 point_step\n" +
		"uint32 row_step\n" +
		"uint8[] data\n" +
		"bool is_dense\n",

	"diagnostic_msgs/msg/KeyValue": "" +
		"string key\n" +
		"string value\n",

	"diagnostic_msgs/msg/DiagnosticStatus": "" +
		"byte OK=0\n" +
		"byte WARN=1\n" +
		"byte ERROR=2\n" +
		"byte STALE=3\n" +
		"byte level\n" +
		"string name\n" +
		"string message\n" +
		"string hardware_id\n" +
		"diagnostic_msgs/msg/KeyValue[] values\n",

	"diagnostic_msgs/msg/DiagnosticArray": "" +
		"Header header\n" +
		"diagnostic_msgs/msg/DiagnosticStatus[] status\n",

	"rosgraph_msgs/msg/Log": "" +
		"byte DEBUG=1\n" +
		"byte INFO=2\n" +
		"byte WARN=4\n" +
		"byte ERROR=8\n" +
		"byte FATAL=16\n" +
		"Header header\n" +
		"byte level\n" +
		"string name\n" +
		"string msg\n" +
		"string file\n" +
		"string function\n" +
		"uint32 line\n" +
		"string[] topics\n",
}

// builtinOrder fixes the registration order so that a package is always
// registered after the packages it depends on, even though Register
// itself accepts a whole batch atomically and does not actually require
// ordering; this just keeps error messages during bootstrap attributable.
var builtinOrder = []string{
	"builtin_interfaces/msg/Time",
	"builtin_interfaces/msg/Duration",
	"std_msgs/msg/Header",
	"std_msgs/msg/String",
	"std_msgs/msg/Bool",
	"std_msgs/msg/Int32",
	"std_msgs/msg/Float64",
	"std_msgs/msg/ColorRGBA",
	"geometry_msgs/msg/Vector3",
	"geometry_msgs/msg/Point",
	"geometry_msgs/msg/Quaternion",
	"geometry_msgs/msg/Pose",
	"geometry_msgs/msg/PoseStamped",
	"geometry_msgs/msg/Twist",
	"geometry_msgs/msg/Transform",
	"geometry_msgs/msg/TransformStamped",
	"sensor_msgs/msg/Imu",
	"sensor_msgs/msg/PointField",
	"sensor_msgs/msg/PointCloud2",
	"diagnostic_msgs/msg/KeyValue",
	"diagnostic_msgs/msg/DiagnosticStatus",
	"diagnostic_msgs/msg/DiagnosticArray",
	"rosgraph_msgs/msg/Log",
}

// MustRegisterBuiltins seeds r with the built-in message set. It panics
// on failure, which would only indicate a bug in builtinSources itself
// (a malformed literal), never a caller error.
func (r *Registry) MustRegisterBuiltins() {
	batch := make(map[string]*Definition, len(builtinOrder))
	for _, name := range builtinOrder {
		defs, err := ParseMsg(name, builtinSources[name])
		if err != nil {
			panic("typesys: malformed builtin " + name + ": " + err.Error())
		}
		for n, d := range defs {
			batch[n] = d
		}
	}
	if err := r.Register(batch); err != nil {
		panic("typesys: builtin registration conflict: " + err.Error())
	}
}
