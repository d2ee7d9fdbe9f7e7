package proc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Name returns the executable name for pid from /proc/<pid>/comm. The
// kernel truncates it to 15 bytes, so callers must compare against a value
// recorded the same way.
func Name(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", fmt.Errorf("read /proc/%d/comm: %w", pid, err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", fmt.Errorf("empty process name for pid %d", pid)
	}
	return name, nil
}

// StartTime returns the process start time in clock ticks since boot
// (field 22 of /proc/<pid>/stat). Combined with the PID it uniquely
// identifies a process for the lifetime of the boot.
func StartTime(pid int) (int64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, fmt.Errorf("read /proc/%d/stat: %w", pid, err)
	}

	// The comm field (field 2) is in parentheses and may contain spaces.
	// Find the closing paren to safely split the remaining fields.
	s := string(data)
	closeIdx := strings.LastIndex(s, ")")
	if closeIdx < 0 {
		return 0, fmt.Errorf("malformed /proc/%d/stat: no closing paren", pid)
	}
	rest := strings.Fields(s[closeIdx+2:])
	// starttime is field 22 in the full stat, index 19 after the comm split.
	const starttimeIdx = 19
	if len(rest) <= starttimeIdx {
		return 0, fmt.Errorf("malformed /proc/%d/stat: too few fields", pid)
	}
	starttime, err := strconv.ParseInt(rest[starttimeIdx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse starttime for pid %d: %w", pid, err)
	}
	return starttime, nil
}
