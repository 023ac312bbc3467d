package util

import "os"

// containerMarkers are created by docker and podman inside every container
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// IsRunningInContainer reports whether the process runs inside a container,
// where a missing sqlite file means the volume wasn't mounted
func IsRunningInContainer() bool {
	for _, p := range containerMarkers {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}

	return false
}
