package testservices

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"go.uber.org/multierr"
)

// Managed wraps a service registered with a [Collection] under a resolved
// unique name. It delegates most of the lifecycle to the wrapped service,
// but its Create is a reconciliation check rather than a creator: a
// Collection manages services that are already up, it does not own their
// startup.
type Managed struct {
	name string
	svc  Lifecycle
}

// Name returns the name the service was registered under, unique within its
// collection.
func (m *Managed) Name() string { return m.name }

// Service returns the wrapped service.
func (m *Managed) Service() Lifecycle { return m.svc }

// Possible delegates to the wrapped service.
func (m *Managed) Possible(ctx context.Context) bool { return m.svc.Possible(ctx) }

// Exists delegates to the wrapped service.
func (m *Managed) Exists(ctx context.Context) (bool, error) { return m.svc.Exists(ctx) }

// Create verifies the wrapped service already exists, returning
// [MissingServiceError] when it does not.
func (m *Managed) Create(ctx context.Context) error {
	ok, err := m.svc.Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &MissingServiceError{Service: m.String()}
	}
	return nil
}

// Destroy delegates to the wrapped service.
func (m *Managed) Destroy(ctx context.Context) error { return m.svc.Destroy(ctx) }

func (m *Managed) String() string {
	return fmt.Sprintf("<Managed %s: %s>", serviceTypeName(m.svc), m.name)
}

// Collection is a named registry of services within one logical group,
// usually a test package. No two services in a collection share a resolved
// name. A collection is built once per test run and is not safe for
// concurrent use.
type Collection struct {
	name   string
	byName map[string]*Managed
	byType map[reflect.Type][]*Managed
	order  []string
}

// NewCollection builds a collection managing the given services. An empty
// name defaults to the name of the caller's enclosing directory, so a
// collection created in a test package is named after that package's
// directory.
func NewCollection(name string, services ...Lifecycle) (*Collection, error) {
	if name == "" {
		name = callerDir()
	}
	c := &Collection{
		name:   name,
		byName: make(map[string]*Managed),
		byType: make(map[reflect.Type][]*Managed),
	}
	for _, svc := range services {
		if _, err := c.Manage(svc); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// Manage registers the service under an automatically resolved name: the
// service's own name when it has one, otherwise the concrete type name with
// a numeric suffix from the second same-type service onwards.
func (c *Collection) Manage(svc Lifecycle) (*Managed, error) {
	return c.manage(svc, "")
}

// ManageNamed registers the service under the supplied name.
func (c *Collection) ManageNamed(svc Lifecycle, name string) (*Managed, error) {
	return c.manage(svc, name)
}

func (c *Collection) manage(svc Lifecycle, name string) (*Managed, error) {
	explicit := name
	if explicit == "" {
		if n, ok := svc.(Namer); ok {
			explicit = n.ServiceName()
		}
	}
	if explicit != "" {
		if _, taken := c.byName[explicit]; taken {
			return nil, &NameConflictError{Name: explicit}
		}
		name = explicit
	} else {
		base := serviceTypeName(svc)
		name = base
		for i := 2; ; i++ {
			if _, taken := c.byName[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, i)
		}
	}

	// Rebind the service's resource name to "{collection}_{name}" so that
	// anything it creates is attributable to this collection. Rename
	// returns a fresh binding; the caller's original value is untouched.
	if r, ok := svc.(Renamer); ok {
		parts := make([]string, 0, 2)
		for _, part := range []string{c.name, name} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		svc = r.Rename(strings.Join(parts, "_"))
	}

	managed := &Managed{name: name, svc: svc}
	c.byName[name] = managed
	c.order = append(c.order, name)
	t := reflect.TypeOf(svc)
	c.byType[t] = append(c.byType[t], managed)
	return managed, nil
}

// Obtain returns the single managed service with concrete type S,
// returning [WrongTypeError] when the collection holds zero or more than
// one instance of that type.
func Obtain[S Lifecycle](c *Collection) (*Managed, error) {
	want := reflect.TypeFor[S]()
	matches := c.byType[want]
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &WrongTypeError{Requested: want.String()}
	default:
		candidates := make([]string, len(matches))
		for i, m := range matches {
			candidates[i] = m.String()
		}
		return nil, &WrongTypeError{Requested: want.String(), Candidates: candidates}
	}
}

// ObtainNamed returns the managed service registered under name, returning
// [WrongTypeError] when its concrete type is not exactly S.
func ObtainNamed[S Lifecycle](c *Collection, name string) (*Managed, error) {
	managed, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("no service named %q", name)
	}
	want := reflect.TypeFor[S]()
	if have := reflect.TypeOf(managed.svc); have != want {
		return nil, &WrongTypeError{Requested: want.String(), Name: name, Have: have.String()}
	}
	return managed, nil
}

// Up ensures every managed service exists, creating those that do not. The
// pass is aborted by the first failure.
func (c *Collection) Up(ctx context.Context) error {
	for _, name := range c.order {
		svc := c.byName[name].svc
		ok, err := svc.Exists(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if ok {
			continue
		}
		if err := svc.Create(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Printf("%s: created", name)
	}
	return nil
}

// Down destroys every managed service that exists. Unlike Up it keeps going
// after a failure, so one stuck service cannot leak the rest; the
// per-service errors are aggregated.
func (c *Collection) Down(ctx context.Context) (retErr error) {
	for _, name := range c.order {
		svc := c.byName[name].svc
		ok, err := svc.Exists(ctx)
		if err != nil {
			retErr = multierr.Append(retErr, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if !ok {
			continue
		}
		if err := svc.Destroy(ctx); err != nil {
			retErr = multierr.Append(retErr, fmt.Errorf("%s: %w", name, err))
			continue
		}
		log.Printf("%s: destroyed", name)
	}
	return retErr
}

// Acquire brings the whole collection up and returns a cleanup function
// that brings it down. The cleanup function is valid even when an error is
// returned, so whatever part of the collection did come up can be torn
// down again.
func (c *Collection) Acquire(ctx context.Context) (func() error, error) {
	cleanup := func() error {
		return c.Down(context.WithoutCancel(ctx))
	}
	if err := c.Up(ctx); err != nil {
		return cleanup, err
	}
	return cleanup, nil
}

// callerDir names a collection after the directory of the file that called
// NewCollection.
func callerDir() string {
	_, file, _, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	return filepath.Base(filepath.Dir(file))
}
