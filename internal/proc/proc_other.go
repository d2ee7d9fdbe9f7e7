//go:build !linux

package proc

import "fmt"

// Without /proc the identity lookups are unavailable. Lock records then
// carry no identity and staleness falls back to the signal-0 check alone.

func Name(pid int) (string, error) {
	return "", fmt.Errorf("process name lookup not supported on this platform")
}

func StartTime(pid int) (int64, error) {
	return 0, fmt.Errorf("process start time lookup not supported on this platform")
}
