package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/testservices/testservices"
)

const (
	// DefaultStartWait is how long a freshly started container is given
	// before the first status check.
	DefaultStartWait = 50 * time.Millisecond

	// DefaultReadyPollWait is the interval between readiness-phrase checks.
	DefaultReadyPollWait = 10 * time.Millisecond

	// DefaultReadyTimeout is how long a container may take to become ready
	// before Create fails.
	DefaultReadyTimeout = 5 * time.Second

	statusRunning = "running"
)

// Container is a service backed by a single container. Create pulls the
// image if needed, starts the container and waits for its readiness phrases
// to appear in the logs; Exists reconciles an already-present container
// against this configuration; Destroy stops and removes it.
//
// A Container owns exactly one container identity and is not safe for
// concurrent use. Two instances must not be configured with the same
// explicit name at the same time; the runtime rejects duplicate names,
// which callers can rely on for mutual exclusion.
type Container struct {
	image         string
	version       string
	alwaysPull    bool
	env           map[string]string
	ports         map[int]int
	volumes       map[string]Bind
	startWait     time.Duration
	readyPollWait time.Duration
	readyTimeout  time.Duration
	readyPhrases  [][]byte
	name          string

	newRuntime func(ctx context.Context) (Runtime, error)
	rt         Runtime

	// id is set once this instance has created a container and cleared by
	// Destroy. portMap is populated only by a successful Create, never by
	// discovery through Exists.
	id      string
	portMap map[int]int
}

// OptionsFunc configures a Container.
type OptionsFunc func(c *Container)

// WithEnv sets the container environment.
func WithEnv(env map[string]string) OptionsFunc {
	return func(c *Container) { c.env = maps.Clone(env) }
}

// WithPort publishes a container port on a host port. A zero host port
// requests an ephemeral port assigned by the runtime.
func WithPort(containerPort, hostPort int) OptionsFunc {
	return func(c *Container) { c.ports[containerPort] = hostPort }
}

// WithVolume bind-mounts a host path into the container. Mode is "ro" or
// "rw"; empty means "rw".
func WithVolume(hostPath, containerPath, mode string) OptionsFunc {
	return func(c *Container) { c.volumes[hostPath] = Bind{Target: containerPath, Mode: mode} }
}

// WithAlwaysPull pulls the image even when it is already available locally.
func WithAlwaysPull() OptionsFunc {
	return func(c *Container) { c.alwaysPull = true }
}

// WithName sets an explicit container name. Named containers can be
// rediscovered and reconciled by a fresh instance with the same
// configuration.
func WithName(name string) OptionsFunc {
	return func(c *Container) { c.name = name }
}

// WithReadyPhrases sets the phrases that must appear in the container log,
// in order, before the container is considered ready.
func WithReadyPhrases(phrases ...string) OptionsFunc {
	return func(c *Container) {
		c.readyPhrases = make([][]byte, len(phrases))
		for i, p := range phrases {
			c.readyPhrases[i] = []byte(p)
		}
	}
}

// WithStartWait sets the pause between starting the container and the first
// status check.
func WithStartWait(d time.Duration) OptionsFunc {
	return func(c *Container) { c.startWait = d }
}

// WithReadyPollWait sets the interval between readiness checks.
func WithReadyPollWait(d time.Duration) OptionsFunc {
	return func(c *Container) { c.readyPollWait = d }
}

// WithReadyTimeout sets how long a container may take to become ready.
func WithReadyTimeout(d time.Duration) OptionsFunc {
	return func(c *Container) { c.readyTimeout = d }
}

// WithRuntime injects a Runtime, replacing the default docker connection.
func WithRuntime(rt Runtime) OptionsFunc {
	return func(c *Container) { c.rt = rt }
}

// New returns a Container running image:version.
func New(image, version string, opts ...OptionsFunc) *Container {
	c := &Container{
		image:         image,
		version:       version,
		env:           map[string]string{},
		ports:         map[int]int{},
		volumes:       map[string]Bind{},
		startWait:     DefaultStartWait,
		readyPollWait: DefaultReadyPollWait,
		readyTimeout:  DefaultReadyTimeout,
		newRuntime:    NewDockerRuntime,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServiceName returns the configured container name, empty when the runtime
// assigns one.
func (c *Container) ServiceName() string { return c.name }

// Rename returns a copy of this service bound to the given container name.
// The receiver is not modified.
func (c *Container) Rename(name string) testservices.Lifecycle {
	clone := *c
	clone.name = name
	return &clone
}

// Get returns the container itself; the usable handle for a raw container
// is its resolved port map and id.
func (c *Container) Get() (*Container, error) { return c, nil }

// ID returns the runtime id of the container created by this instance,
// empty before Create or after Destroy.
func (c *Container) ID() string { return c.id }

// ImageRef returns the image:tag reference this container runs.
func (c *Container) ImageRef() string { return c.image + ":" + c.version }

// PortMap maps container ports to the host ports they were published on.
// It is populated only by a successful Create.
func (c *Container) PortMap() map[int]int { return maps.Clone(c.portMap) }

// HostPort returns the host port a container port was published on.
func (c *Container) HostPort(containerPort int) (int, bool) {
	hport, ok := c.portMap[containerPort]
	return hport, ok
}

func (c *Container) runtime(ctx context.Context) (Runtime, error) {
	if c.rt == nil {
		rt, err := c.newRuntime(ctx)
		if err != nil {
			return nil, err
		}
		c.rt = rt
	}
	return c.rt, nil
}

// Possible reports whether the container runtime is reachable.
func (c *Container) Possible(ctx context.Context) bool {
	_, err := c.runtime(ctx)
	return err == nil
}

func (c *Container) config() Config {
	return Config{
		Image: c.ImageRef(),
		Env:   c.env,
		Ports: c.ports,
		Binds: c.volumes,
		Name:  c.name,
	}
}

// Create pulls the image if needed, creates and starts the container, and
// blocks until it is ready: running, with every readiness phrase present in
// its log in order. On failure it returns [FailedError] and leaves the
// container in place, with the local handle still set so Destroy can clean
// it up.
func (c *Container) Create(ctx context.Context) error {
	if c.id != "" {
		return fmt.Errorf("container already created: %s", c.id)
	}
	rt, err := c.runtime(ctx)
	if err != nil {
		return err
	}

	ref := c.ImageRef()
	have, err := rt.ImageExists(ctx, ref)
	if err != nil {
		return err
	}
	if !have || c.alwaysPull {
		log.Printf("pulling %s", ref)
		if err := rt.PullImage(ctx, ref); err != nil {
			return err
		}
	}

	id, err := rt.CreateContainer(ctx, c.config())
	if err != nil {
		return err
	}
	c.id = id
	if err := rt.StartContainer(ctx, id); err != nil {
		return err
	}

	// A container can exit within the first instant of its life; give it a
	// moment before the first status check.
	sleepCtx(ctx, c.startWait)

	if err := c.awaitReady(ctx, rt); err != nil {
		return err
	}

	info, err := rt.InspectContainer(ctx, c.id)
	if err != nil {
		return err
	}
	portMap := make(map[int]int, len(c.ports))
	for cport := range c.ports {
		hport, ok := info.Ports[cport]
		if !ok {
			return fmt.Errorf("port %d was not published on container %s", cport, info.Name)
		}
		portMap[cport] = hport
	}
	c.portMap = portMap
	log.Printf("container %s ready (%s)", info.Name, ref)
	return nil
}

// awaitReady polls the container until it is running and every readiness
// phrase has appeared in its log in order, or the ready timeout elapses.
func (c *Container) awaitReady(ctx context.Context, rt Runtime) error {
	errNotReady := errors.New("not ready")
	var lastPhrase []byte

	backoff := retry.WithMaxDuration(c.readyTimeout, retry.NewConstant(c.readyPollWait))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		info, err := rt.InspectContainer(ctx, c.id)
		if err != nil {
			return err
		}
		if info.Status != statusRunning {
			return c.failed(ctx, rt, info, fmt.Sprintf("status: %s", info.Status))
		}
		logBytes, err := rt.ContainerLogs(ctx, c.id)
		if err != nil {
			return err
		}
		if phrase, ok := scanPhrases(logBytes, c.readyPhrases); !ok {
			lastPhrase = phrase
			return retry.RetryableError(errNotReady)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, errNotReady) {
		reason := fmt.Sprintf("Took longer than %gs waiting for '%s'",
			c.readyTimeout.Seconds(), lastPhrase)
		info, ierr := rt.InspectContainer(ctx, c.id)
		if ierr != nil {
			return errors.Join(err, ierr)
		}
		return c.failed(ctx, rt, info, reason)
	}
	return err
}

// failed builds a FailedError with the container's logs at the moment of
// failure. The container is left in place for post-mortem inspection.
func (c *Container) failed(ctx context.Context, rt Runtime, info Info, reason string) error {
	logs, err := rt.ContainerLogs(ctx, info.ID)
	if err != nil {
		logs = []byte(fmt.Sprintf("<logs unavailable: %v>", err))
	}
	return &FailedError{
		Name:   info.Name,
		Image:  c.ImageRef(),
		Reason: reason,
		Logs:   logs,
	}
}

// scanPhrases reports whether every phrase appears in logBytes in order,
// each search continuing from just after the previous match. On failure it
// returns the first phrase not yet found.
func scanPhrases(logBytes []byte, phrases [][]byte) ([]byte, bool) {
	start := 0
	for _, phrase := range phrases {
		i := bytes.Index(logBytes[start:], phrase)
		if i < 0 {
			return phrase, false
		}
		start += i + len(phrase)
	}
	return nil, true
}

// Destroy stops the container with no grace period and removes it. The
// local handle is cleared whether or not the runtime still knew about the
// container.
func (c *Container) Destroy(ctx context.Context) error {
	if c.id == "" {
		return nil
	}
	rt, err := c.runtime(ctx)
	if err != nil {
		return err
	}
	id := c.id
	c.id = ""
	c.portMap = nil
	if err := rt.StopContainer(ctx, id, 0); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := rt.RemoveContainer(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	log.Printf("container %s destroyed", id)
	return nil
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
