package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// runningInfo is the runtime view of a container matching the configuration
// built by existingService.
func runningInfo() Info {
	return Info{
		ID:     "existing-1",
		Name:   "suite_db",
		Status: statusRunning,
		Image:  "postgres:16",
		Env:    []string{"POSTGRES_PASSWORD=hunter2", "PATH=/usr/bin"},
		Ports:  map[int]int{5432: 49153},
		Mounts: []Mount{{Source: "/tmp/conf", Target: "/etc/conf", Mode: "ro"}},
	}
}

func existingService(rt Runtime, opts ...OptionsFunc) *Container {
	base := []OptionsFunc{
		WithRuntime(rt),
		WithName("suite_db"),
		WithEnv(map[string]string{"POSTGRES_PASSWORD": "hunter2"}),
		WithPort(5432, 0),
		WithVolume("/tmp/conf", "/etc/conf", "ro"),
	}
	return New("postgres", "16", append(base, opts...)...)
}

func TestExists(t *testing.T) {
	ctx := context.Background()

	t.Run("no name and no id", func(t *testing.T) {
		rt := newFakeRuntime()
		c := New("postgres", "16", WithRuntime(rt))
		ok, err := c.Exists(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("named container absent", func(t *testing.T) {
		rt := newFakeRuntime()
		c := existingService(rt)
		ok, err := c.Exists(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("matching container", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		rt.addContainer(runningInfo(), nil)

		ok, err := existingService(rt).Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("found by id after create", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("redis:7")
		rt.startLogs = []byte("up")

		c := New("redis", "7", append(fastOpts(rt), WithReadyPhrases("up"))...)
		require.NoError(t, c.Create(ctx))

		ok, err := c.Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("name wins over held id", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		rt.addContainer(runningInfo(), nil)

		c := existingService(rt)
		// A held id pointing at a container that no longer exists must not
		// shadow the lookup by name.
		c.id = "long-gone"
		ok, err := c.Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("existing but not running", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Status = "exited"
		rt.addContainer(info, []byte("out of memory\n"))

		_, err := existingService(rt).Exists(ctx)
		var failed *FailedError
		require.ErrorAs(t, err, &failed)
		require.Equal(t, "exists but status='exited'", failed.Reason)
		require.Contains(t, string(failed.Logs), "out of memory")
	})
}

func TestExistsImage(t *testing.T) {
	ctx := context.Background()

	t.Run("digest resolves to matching tag", func(t *testing.T) {
		rt := newFakeRuntime()
		info := runningInfo()
		info.Image = "sha256:deadbeef"
		rt.addContainer(info, nil)
		rt.tags["sha256:deadbeef"] = []string{"docker.io/library/postgres:16"}

		ok, err := existingService(rt).Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok, "a familiar name must match its fully qualified form")
	})

	t.Run("different image", func(t *testing.T) {
		rt := newFakeRuntime()
		info := runningInfo()
		info.Image = "postgres:15"
		rt.addContainer(info, nil)
		rt.addImage("postgres:15")

		_, err := existingService(rt).Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "image", mis.Field)
		require.Contains(t, mis.Detail, "expected postgres:16")
	})
}

func TestExistsEnvironment(t *testing.T) {
	ctx := context.Background()

	t.Run("extra container variables are ignored", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		rt.addContainer(runningInfo(), nil)

		// PATH is set in the container but not configured; that is fine.
		ok, err := existingService(rt).Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("changed value", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Env = []string{"POSTGRES_PASSWORD=other"}
		rt.addContainer(info, nil)

		_, err := existingService(rt).Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "environment", mis.Field)
		require.Equal(t, `POSTGRES_PASSWORD: expected "hunter2", actual "other"`, mis.Detail)
	})

	t.Run("missing variable", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Env = []string{"PATH=/usr/bin"}
		rt.addContainer(info, nil)

		_, err := existingService(rt).Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "environment", mis.Field)
		require.Equal(t, `POSTGRES_PASSWORD: expected "hunter2", actual <none>`, mis.Detail)
	})
}

func TestExistsPorts(t *testing.T) {
	ctx := context.Background()

	t.Run("ephemeral request matches any published port", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		rt.addContainer(runningInfo(), nil)

		ok, err := existingService(rt).Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("fixed port mismatch", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		rt.addContainer(runningInfo(), nil)

		svc := existingService(rt, WithPort(5432, 5433))
		_, err := svc.Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "ports", mis.Field)
	})

	t.Run("extra published port", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Ports[8080] = 49154
		rt.addContainer(info, nil)

		_, err := existingService(rt).Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "ports", mis.Field)
	})
}

func TestExistsVolumes(t *testing.T) {
	ctx := context.Background()

	t.Run("empty mode means read-write", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Mounts = []Mount{{Source: "/tmp/data", Target: "/var/lib/data", Mode: "", RW: true}}
		rt.addContainer(info, nil)

		svc := New("postgres", "16",
			WithRuntime(rt),
			WithName("suite_db"),
			WithEnv(map[string]string{"POSTGRES_PASSWORD": "hunter2"}),
			WithPort(5432, 0),
			WithVolume("/tmp/data", "/var/lib/data", ""),
		)
		ok, err := svc.Exists(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("mode mismatch", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Mounts[0].Mode = "rw"
		info.Mounts[0].RW = true
		rt.addContainer(info, nil)

		_, err := existingService(rt).Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "volumes", mis.Field)
	})

	t.Run("missing bind", func(t *testing.T) {
		rt := newFakeRuntime()
		rt.addImage("postgres:16")
		info := runningInfo()
		info.Mounts = nil
		rt.addContainer(info, nil)

		_, err := existingService(rt).Exists(ctx)
		var mis *MisconfiguredError
		require.ErrorAs(t, err, &mis)
		require.Equal(t, "volumes", mis.Field)
	})
}
