package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	ctr "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// dockerRuntime implements Runtime over the docker SDK.
type dockerRuntime struct {
	cli *client.Client
}

// NewDockerRuntime connects to the docker daemon using the standard
// environment configuration (DOCKER_HOST and friends). It fails when the
// daemon is not reachable.
func NewDockerRuntime(ctx context.Context) (Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return &dockerRuntime{cli: cli}, nil
}

func (d *dockerRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	images, err := d.cli.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, fmt.Errorf("list images: %w", err)
	}
	return len(images) > 0, nil
}

func (d *dockerRuntime) PullImage(ctx context.Context, ref string) error {
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer rc.Close()
	// The pull completes when the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	return nil
}

func (d *dockerRuntime) ImageTags(ctx context.Context, ref string) ([]string, error) {
	inspect, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("inspect image %s", ref))
	}
	return inspect.RepoTags, nil
}

func (d *dockerRuntime) CreateContainer(ctx context.Context, cfg Config) (string, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for cport, hport := range cfg.Ports {
		port, err := nat.NewPort("tcp", strconv.Itoa(cport))
		if err != nil {
			return "", fmt.Errorf("port %d: %w", cport, err)
		}
		exposed[port] = struct{}{}
		binding := nat.PortBinding{}
		if hport > 0 {
			binding.HostPort = strconv.Itoa(hport)
		}
		bindings[port] = []nat.PortBinding{binding}
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	binds := make([]string, 0, len(cfg.Binds))
	for host, bind := range cfg.Binds {
		mode := bind.Mode
		if mode == "" {
			mode = "rw"
		}
		binds = append(binds, fmt.Sprintf("%s:%s:%s", host, bind.Target, mode))
	}
	sort.Strings(binds)

	resp, err := d.cli.ContainerCreate(ctx,
		&ctr.Config{
			Image:        cfg.Image,
			Env:          env,
			ExposedPorts: exposed,
		},
		&ctr.HostConfig{
			PortBindings: bindings,
			Binds:        binds,
		},
		nil, nil, cfg.Name,
	)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	return resp.ID, nil
}

func (d *dockerRuntime) StartContainer(ctx context.Context, id string) error {
	if err := d.cli.ContainerStart(ctx, id, ctr.StartOptions{}); err != nil {
		return fmt.Errorf("start container %s: %w", id, err)
	}
	return nil
}

func (d *dockerRuntime) InspectContainer(ctx context.Context, id string) (Info, error) {
	inspect, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return Info{}, notFoundOr(err, fmt.Sprintf("inspect container %s", id))
	}

	info := Info{
		ID:    inspect.ID,
		Name:  strings.TrimPrefix(inspect.Name, "/"),
		Ports: map[int]int{},
	}
	if inspect.State != nil {
		info.Status = inspect.State.Status
	}
	if inspect.Config != nil {
		info.Image = inspect.Config.Image
		info.Env = inspect.Config.Env
	}
	if inspect.NetworkSettings != nil {
		for port, portBindings := range inspect.NetworkSettings.Ports {
			if len(portBindings) == 0 {
				continue
			}
			hport, err := strconv.Atoi(portBindings[0].HostPort)
			if err != nil {
				continue
			}
			info.Ports[port.Int()] = hport
		}
	}
	for _, m := range inspect.Mounts {
		info.Mounts = append(info.Mounts, Mount{
			Source: m.Source,
			Target: m.Destination,
			Mode:   string(m.Mode),
			RW:     m.RW,
		})
	}
	return info, nil
}

func (d *dockerRuntime) FindContainer(ctx context.Context, name string) (Info, error) {
	// The name filter matches substrings; anchor it and verify the match.
	containers, err := d.cli.ContainerList(ctx, ctr.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+name+"$")),
	})
	if err != nil {
		return Info{}, fmt.Errorf("list containers: %w", err)
	}
	for _, c := range containers {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == name {
				return d.InspectContainer(ctx, c.ID)
			}
		}
	}
	return Info{}, fmt.Errorf("container %q: %w", name, ErrNotFound)
}

func (d *dockerRuntime) ContainerLogs(ctx context.Context, id string) ([]byte, error) {
	rc, err := d.cli.ContainerLogs(ctx, id, ctr.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("logs for container %s", id))
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read logs for container %s: %w", id, err)
	}
	// Non-tty containers produce a multiplexed stream whose frame headers
	// could split a readiness phrase; demultiplex when possible and fall
	// back to the raw bytes for tty containers.
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, bytes.NewReader(raw)); err != nil {
		return raw, nil
	}
	return buf.Bytes(), nil
}

func (d *dockerRuntime) StopContainer(ctx context.Context, id string, grace time.Duration) error {
	seconds := int(grace / time.Second)
	if err := d.cli.ContainerStop(ctx, id, ctr.StopOptions{Timeout: &seconds}); err != nil {
		return notFoundOr(err, fmt.Sprintf("stop container %s", id))
	}
	return nil
}

func (d *dockerRuntime) RemoveContainer(ctx context.Context, id string) error {
	if err := d.cli.ContainerRemove(ctx, id, ctr.RemoveOptions{}); err != nil {
		return notFoundOr(err, fmt.Sprintf("remove container %s", id))
	}
	return nil
}

// notFoundOr maps the docker client's not-found errors onto ErrNotFound so
// callers can test for absence without knowing the transport.
func notFoundOr(err error, op string) error {
	if client.IsErrNotFound(err) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
