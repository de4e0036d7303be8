package testservices

import (
	"context"
	"reflect"
)

// Provider yields a single service from an ordered list of alternatives
// that all produce the same kind of result. Acquire selects the first
// candidate that is possible in the current environment; Release tears down
// only the selection. A provider never selects more than one service.
type Provider[T any] struct {
	services []Service[T]
	selected Service[T]
}

// NewProvider returns a provider over the given alternatives, tried in
// order.
func NewProvider[T any](services ...Service[T]) *Provider[T] {
	return &Provider[T]{services: services}
}

// Acquire creates the first possible service and returns its handle. When
// no candidate is possible it returns [NoAvailableServiceError] naming the
// expected result type; no candidate is created in that case.
func (p *Provider[T]) Acquire(ctx context.Context) (T, error) {
	var zero T
	for _, svc := range p.services {
		if !svc.Possible(ctx) {
			continue
		}
		if err := svc.Create(ctx); err != nil {
			return zero, err
		}
		p.selected = svc
		return svc.Get()
	}
	return zero, &NoAvailableServiceError{Want: reflect.TypeFor[T]().String()}
}

// Release destroys the selected service, if any. Candidates that were never
// selected are not touched.
func (p *Provider[T]) Release(ctx context.Context) error {
	if p.selected == nil {
		return nil
	}
	svc := p.selected
	p.selected = nil
	return svc.Destroy(ctx)
}
