package container

import (
	"context"
	"time"
)

// Config describes the container a service would create. It is also the
// basis for reconciliation: an existing container is compared against the
// Config that would be used to create it.
type Config struct {
	// Image is the fully qualified image reference, name:tag.
	Image string
	// Env is the container environment.
	Env map[string]string
	// Ports maps container ports to published host ports. A zero host port
	// requests an ephemeral port assigned by the runtime.
	Ports map[int]int
	// Binds maps host paths to bind-mount targets.
	Binds map[string]Bind
	// Name is the container name; empty means runtime-assigned.
	Name string
}

// Bind is a bind-mount target inside a container.
type Bind struct {
	// Target is the path inside the container.
	Target string
	// Mode is "ro" or "rw"; empty means "rw".
	Mode string
}

// Info is the runtime's view of an existing container.
type Info struct {
	ID     string
	Name   string
	Status string
	// Image is the image reference as reported by the runtime, which may be
	// a sha256 digest rather than a tag.
	Image string
	// Env holds KEY=VALUE pairs.
	Env []string
	// Ports maps container ports to the host ports they are published on.
	Ports map[int]int
	Mounts []Mount
}

// Mount is a mount as reported by the runtime. Mode may be empty for
// default read-write binds; RW is authoritative in that case.
type Mount struct {
	Source string
	Target string
	Mode   string
	RW     bool
}

// Runtime is the narrow boundary to the container runtime. The docker
// implementation is returned by [NewDockerRuntime]; tests substitute their
// own.
//
// Operations that look up a container or image report absence with an error
// wrapping [ErrNotFound], never with partial results.
type Runtime interface {
	// ImageExists reports whether the image is available locally.
	ImageExists(ctx context.Context, ref string) (bool, error)
	// PullImage pulls the image by reference.
	PullImage(ctx context.Context, ref string) error
	// ImageTags resolves ref, which may be a name or a sha256 digest, to
	// the tags of the image it identifies.
	ImageTags(ctx context.Context, ref string) ([]string, error)
	// CreateContainer creates a container and returns its id.
	CreateContainer(ctx context.Context, cfg Config) (string, error)
	// StartContainer starts a created container.
	StartContainer(ctx context.Context, id string) error
	// InspectContainer returns the current state of the container with the
	// given id.
	InspectContainer(ctx context.Context, id string) (Info, error)
	// FindContainer looks up a container by exact name, running or not.
	FindContainer(ctx context.Context, name string) (Info, error)
	// ContainerLogs returns the container's log output, cumulative since
	// start.
	ContainerLogs(ctx context.Context, id string) ([]byte, error)
	// StopContainer stops the container, allowing it the given grace period
	// before being killed.
	StopContainer(ctx context.Context, id string, grace time.Duration) error
	// RemoveContainer removes a stopped container.
	RemoveContainer(ctx context.Context, id string) error
}
