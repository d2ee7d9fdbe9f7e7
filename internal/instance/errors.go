package instance

import "fmt"

// UnknownError means the named instance is not in the configuration.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown instance %q", e.Name)
}

// NotRunningError means a stop was requested for an instance that holds
// no live lock.
type NotRunningError struct {
	Name string
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("instance %q is not running", e.Name)
}
