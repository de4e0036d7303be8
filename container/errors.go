package container

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is reported by a Runtime when a container or image does
	// not exist.
	ErrNotFound = errors.New("not found")
)

// FailedError is returned when a container fails to start, or when an
// existing container with the expected name turns out not to be running.
// The container is deliberately left in place so its logs stay available
// for inspection; the caller is responsible for cleaning it up, typically
// by calling Destroy.
type FailedError struct {
	// Name is the container name.
	Name string
	// Image is the image:tag the container was created from.
	Image string
	// Reason describes what went wrong.
	Reason string
	// Logs is the container's full log output at the moment of failure.
	Logs []byte
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("name=%s\nimage=%s\nreason=%s\nlogs:\n%s",
		e.Name, e.Image, e.Reason, e.Logs)
}

// MisconfiguredError is returned by Exists when a container with the
// expected identity is running but does not match the configuration this
// service would create. The container is never auto-corrected or destroyed.
type MisconfiguredError struct {
	// Field is the mismatched category: image, environment, ports or
	// volumes.
	Field string
	// Detail describes the expected and actual values.
	Detail string
}

func (e *MisconfiguredError) Error() string {
	return fmt.Sprintf("existing container has misconfigured %s: %s", e.Field, e.Detail)
}
