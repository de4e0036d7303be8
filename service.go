package testservices

import (
	"context"
	"reflect"
)

// Lifecycle is the type-independent part of a service: whether it can be
// attempted, whether a usable instance already exists, and how to create and
// destroy one.
type Lifecycle interface {
	// Possible reports whether this service can be attempted in the current
	// environment, for example whether the container runtime is reachable.
	// Unavailability is a signal, never an error.
	Possible(ctx context.Context) bool

	// Exists reports whether a usable instance of this service is already
	// present. Implementations that cannot detect reuse return
	// ErrNotImplemented; implementations that are never reusable return
	// false.
	Exists(ctx context.Context) (bool, error)

	// Create does any work needed to bring the service up. It must be
	// idempotent relative to Exists: creating a service that already exists
	// must not duplicate resources.
	Create(ctx context.Context) error

	// Destroy releases everything Create acquired.
	Destroy(ctx context.Context) error
}

// Service is a Lifecycle that yields a usable handle of type T.
type Service[T any] interface {
	Lifecycle

	// Get returns the object that makes most sense to use this service.
	// It may be called many times while the service is up.
	Get() (T, error)
}

// Namer is implemented by services that carry a display name for the
// resources they create.
type Namer interface {
	ServiceName() string
}

// Renamer is implemented by services whose resource name can be re-bound by
// a managing registry. Rename returns a rebound copy and never mutates the
// receiver, so the same service value can safely be handed to more than one
// registry.
type Renamer interface {
	Rename(name string) Lifecycle
}

// Base provides the default lifecycle behavior. Embed it in services that
// only need to override a subset of the contract.
type Base struct{}

// Possible reports true; most services can at least be attempted.
func (Base) Possible(ctx context.Context) bool { return true }

// Exists returns ErrNotImplemented. Services must define their own reuse
// detection, or explicitly declare themselves never reusable by returning
// false.
func (Base) Exists(ctx context.Context) (bool, error) { return false, ErrNotImplemented }

// Create does nothing.
func (Base) Create(ctx context.Context) error { return nil }

// Destroy does nothing.
func (Base) Destroy(ctx context.Context) error { return nil }

// Acquire creates the service and returns its handle along with a cleanup
// function that destroys it. The cleanup function is valid even when an
// error is returned, so callers can always release whatever Create managed
// to acquire before failing:
//
//	db, cleanup, err := testservices.Acquire(ctx, database.Postgres())
//	if err != nil {
//		cleanup()
//		return err
//	}
//	defer cleanup()
func Acquire[T any](ctx context.Context, svc Service[T]) (T, func() error, error) {
	cleanup := func() error {
		return svc.Destroy(context.WithoutCancel(ctx))
	}
	var zero T
	if err := svc.Create(ctx); err != nil {
		return zero, cleanup, err
	}
	out, err := svc.Get()
	if err != nil {
		return zero, cleanup, err
	}
	return out, cleanup, nil
}

// serviceTypeName returns the bare concrete type name of a service, without
// package qualifier or pointer marker. Used for auto-generated names.
func serviceTypeName(svc Lifecycle) string {
	t := reflect.TypeOf(svc)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
