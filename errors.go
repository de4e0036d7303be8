package testservices

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotImplemented is returned by lifecycle operations a service does
	// not define, such as Exists on services without reuse detection.
	ErrNotImplemented = errors.New("not implemented")
)

// NameConflictError is returned by a Collection when a resolved service name
// is already taken.
type NameConflictError struct {
	// Name is the colliding name.
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("service name already taken: %q", e.Name)
}

// MissingServiceError is returned when a managed service is expected to be
// up but does not exist. It indicates a Collection was used as a consumer
// without having been brought up first.
type MissingServiceError struct {
	// Service describes the service that was missing.
	Service string
}

func (e *MissingServiceError) Error() string {
	return fmt.Sprintf("%s did not exist, collection not up?", e.Service)
}

// NoAvailableServiceError is returned by a Provider when none of its
// candidate services are possible in the current environment.
type NoAvailableServiceError struct {
	// Want names the result type the provider was asked for, when known.
	Want string
}

func (e *NoAvailableServiceError) Error() string {
	if e.Want == "" {
		return "no available service"
	}
	return fmt.Sprintf("no available service providing %s", e.Want)
}

// WrongTypeError is returned by Obtain and ObtainNamed when the managed
// services cannot satisfy the requested type: the named service has a
// different concrete type, or a by-type lookup matched zero or several
// instances.
type WrongTypeError struct {
	// Requested is the requested concrete type.
	Requested string
	// Name and Have are set when a by-name lookup found a service of the
	// wrong type.
	Name string
	Have string
	// Candidates enumerates the matches of an ambiguous by-type lookup.
	Candidates []string
}

func (e *WrongTypeError) Error() string {
	switch {
	case e.Name != "":
		return fmt.Sprintf("%q is of type %s, but %s requested", e.Name, e.Have, e.Requested)
	case len(e.Candidates) > 0:
		return fmt.Sprintf("multiple services, specify name: %s", strings.Join(e.Candidates, ", "))
	default:
		return fmt.Sprintf("no service of type %s", e.Requested)
	}
}
