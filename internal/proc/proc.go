// Package proc inspects processes the launcher does not parent: liveness
// by signal 0 and, where the platform allows, identity by kernel start
// time so a recycled PID is never mistaken for the original process. The
// executable name is a weaker fallback for platforms without a readable
// start time.
package proc

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Alive reports whether pid denotes a live process. EPERM means the
// process exists but belongs to another user, which still counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Matches checks the live process at pid against a recorded executable
// name and start time. A recorded start time is decided on its own: the
// kernel fixes it for the lifetime of a PID, while the executable name
// legitimately changes when a launcher script execs the real binary in
// place. The name is consulted only when no start time was recorded, and
// with neither recorded the result is true (best effort).
func Matches(pid int, name string, startTime int64) bool {
	if startTime != 0 {
		actual, err := StartTime(pid)
		return err == nil && actual == startTime
	}
	if name != "" {
		actual, err := Name(pid)
		return err == nil && actual == name
	}
	return true
}
