package convert

import "gopkg.in/yaml.v3"

// qosProfile is the one QoS attribute rosbag1's latching flag maps to
// and from: durability.
type qosProfile struct {
	Durability string `yaml:"durability"`
}

const transientLocal = "transient_local"

// synthesizeOfferedQoS builds the single-profile YAML list rosbag2
// connections carry for a latched rosbag1 topic.
func synthesizeOfferedQoS(latched bool) (string, error) {
	if !latched {
		return "", nil
	}
	out, err := yaml.Marshal([]qosProfile{{Durability: transientLocal}})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// hasTransientLocal reports whether any profile in a rosbag2
// offered_qos_profiles YAML list has durability: transient_local.
func hasTransientLocal(offeredQoSYAML string) bool {
	if offeredQoSYAML == "" {
		return false
	}
	var profiles []qosProfile
	if err := yaml.Unmarshal([]byte(offeredQoSYAML), &profiles); err != nil {
		return false
	}
	for _, p := range profiles {
		if p.Durability == transientLocal {
			return true
		}
	}
	return false
}
