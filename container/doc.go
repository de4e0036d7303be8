// Package container provides a reconciling container service.
//
// A [Container] is a [testservices.Service] backed by a single container.
// Create pulls the image when it is not already local, starts the
// container, and waits for the configured readiness phrases to appear in
// its log output, in order, within a bounded timeout. Exists detects an
// already-running container with the same name and diffs its image,
// environment, published ports and bind mounts against what this instance
// would create, so a stale or drifted container is reported rather than
// silently duplicated. Destroy stops the container hard and removes it.
//
// The container runtime is consumed through the narrow [Runtime] interface;
// [NewDockerRuntime] is the default implementation, and tests substitute
// their own.
//
// All operations are synchronous and blocking: Create suspends the caller
// for the full startup and readiness duration. Callers wanting several
// containers started concurrently run one Container per goroutine.
package container
