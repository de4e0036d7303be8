package container

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/distribution/reference"
)

// Exists reports whether a matching container is already present,
// reconciling it against this configuration rather than creating anything.
//
// Discovery precedence: an explicit name always wins, even when this
// instance holds a container id from an earlier Create; the held id is only
// consulted when no name is configured. A container that is found but not
// running is a hard error rather than false, since treating it as absent
// would invite a duplicate create colliding on the same name. A running
// container is diffed against the configuration in the fixed order image,
// environment, ports, volumes; the first mismatch fails with
// [MisconfiguredError].
func (c *Container) Exists(ctx context.Context) (bool, error) {
	rt, err := c.runtime(ctx)
	if err != nil {
		return false, err
	}

	info, err := c.find(ctx, rt)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if info.Status != statusRunning {
		return false, c.failed(ctx, rt, info, fmt.Sprintf("exists but status='%s'", info.Status))
	}

	if err := c.checkImage(ctx, rt, info); err != nil {
		return false, err
	}
	if err := c.checkEnv(info); err != nil {
		return false, err
	}
	if err := c.checkPorts(info); err != nil {
		return false, err
	}
	if err := c.checkVolumes(info); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Container) find(ctx context.Context, rt Runtime) (Info, error) {
	if c.name != "" {
		return rt.FindContainer(ctx, c.name)
	}
	if c.id != "" {
		return rt.InspectContainer(ctx, c.id)
	}
	return Info{}, ErrNotFound
}

// checkImage verifies the existing container runs the expected image. The
// runtime may report the image as a sha256 digest; it is resolved back to
// its tags for comparison. References are normalized, so a bare image name
// matches its docker.io/library form.
func (c *Container) checkImage(ctx context.Context, rt Runtime, info Info) error {
	want, err := normalizeRef(c.ImageRef())
	if err != nil {
		return err
	}
	tags, err := rt.ImageTags(ctx, info.Image)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		got, err := normalizeRef(tag)
		if err != nil {
			continue
		}
		if got == want {
			return nil
		}
	}
	actual := info.Image
	if len(tags) > 0 {
		actual = strings.Join(tags, ", ")
	}
	return &MisconfiguredError{
		Field:  "image",
		Detail: fmt.Sprintf("expected %s, actual %s", want, actual),
	}
}

// normalizeRef renders an image reference in its familiar tagged form, so
// that docker.io/library/postgres:latest and postgres:latest compare equal.
func normalizeRef(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	return reference.FamiliarString(reference.TagNameOnly(named)), nil
}

// checkEnv verifies every configured variable is present in the container's
// environment with an exactly equal value. Extra variables set by the image
// itself are ignored.
func (c *Container) checkEnv(info Info) error {
	actual := make(map[string]string, len(info.Env))
	for _, kv := range info.Env {
		k, v, _ := strings.Cut(kv, "=")
		actual[k] = v
	}

	keys := make([]string, 0, len(c.env))
	for k := range c.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			mismatches = append(mismatches,
				fmt.Sprintf("%s: expected %q, actual <none>", k, c.env[k]))
			continue
		}
		if got != c.env[k] {
			mismatches = append(mismatches,
				fmt.Sprintf("%s: expected %q, actual %q", k, c.env[k], got))
		}
	}
	if len(mismatches) > 0 {
		return &MisconfiguredError{
			Field:  "environment",
			Detail: strings.Join(mismatches, "; "),
		}
	}
	return nil
}

// checkPorts compares the expected container-to-host port mapping against
// the actual published ports. A requested ephemeral port is satisfied by
// whatever port was published at the same container port.
func (c *Container) checkPorts(info Info) error {
	match := len(c.ports) == len(info.Ports)
	if match {
		for cport, want := range c.ports {
			got, ok := info.Ports[cport]
			if !ok || (want != 0 && want != got) {
				match = false
				break
			}
		}
	}
	if !match {
		return &MisconfiguredError{
			Field:  "ports",
			Detail: fmt.Sprintf("expected %v, actual %v", c.ports, info.Ports),
		}
	}
	return nil
}

// checkVolumes compares the expected bind mounts against the mounts
// reported by the runtime. Some runtimes report an empty mode string for
// default binds; the read-write flag is authoritative then.
func (c *Container) checkVolumes(info Info) error {
	expected := make(map[string]Bind, len(c.volumes))
	for host, bind := range c.volumes {
		if bind.Mode == "" {
			bind.Mode = "rw"
		}
		expected[host] = bind
	}

	actual := make(map[string]Bind, len(info.Mounts))
	for _, m := range info.Mounts {
		mode := m.Mode
		if mode == "" {
			mode = "ro"
			if m.RW {
				mode = "rw"
			}
		}
		actual[m.Source] = Bind{Target: m.Target, Mode: mode}
	}

	match := len(expected) == len(actual)
	if match {
		for host, want := range expected {
			if got, ok := actual[host]; !ok || got != want {
				match = false
				break
			}
		}
	}
	if !match {
		return &MisconfiguredError{
			Field:  "volumes",
			Detail: fmt.Sprintf("expected:\n%s\nactual:\n%s", renderBinds(expected), renderBinds(actual)),
		}
	}
	return nil
}

func renderBinds(binds map[string]Bind) string {
	out, err := json.MarshalIndent(binds, "  ", "  ")
	if err != nil {
		return fmt.Sprintf("  %v", binds)
	}
	return "  " + string(out)
}
