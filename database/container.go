package database

import (
	"context"
	"fmt"

	"github.com/testservices/testservices"
	"github.com/testservices/testservices/container"
)

// Container is a database served by a single container. The lifecycle is
// the underlying container's; Get resolves the published host port into a
// usable [Database].
type Container struct {
	inner *container.Container

	// port is the server port inside the container.
	port     int
	dialect  Dialect
	driver   string
	username string
	password string
	database string
}

var _ testservices.Service[Database] = (*Container)(nil)

// Possible reports whether the container runtime is reachable.
func (c *Container) Possible(ctx context.Context) bool { return c.inner.Possible(ctx) }

// Exists reconciles an already-running container against this
// configuration.
func (c *Container) Exists(ctx context.Context) (bool, error) { return c.inner.Exists(ctx) }

// Create starts the database container and waits until the server reports
// readiness in its logs.
func (c *Container) Create(ctx context.Context) error { return c.inner.Create(ctx) }

// Destroy stops and removes the database container.
func (c *Container) Destroy(ctx context.Context) error { return c.inner.Destroy(ctx) }

// ServiceName returns the configured container name, empty when the
// runtime assigns one.
func (c *Container) ServiceName() string { return c.inner.ServiceName() }

// Rename returns a copy of this service bound to the given container name.
func (c *Container) Rename(name string) testservices.Lifecycle {
	clone := *c
	clone.inner = c.inner.Rename(name).(*container.Container)
	return &clone
}

// Get returns the Database reachable on the host. The port is only known
// after a successful Create.
func (c *Container) Get() (Database, error) {
	hostPort, ok := c.inner.HostPort(c.port)
	if !ok {
		return Database{}, fmt.Errorf("port %d of %s is not published, service not created?",
			c.port, c.inner.ImageRef())
	}
	return Database{
		Host:     "127.0.0.1",
		Port:     hostPort,
		Username: c.username,
		Password: c.password,
		Database: c.database,
		Dialect:  c.dialect,
		Driver:   c.driver,
	}, nil
}
