package testservices

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeState is shared between a fake service and its renamed copies, so
// tests can observe lifecycle calls regardless of which copy received them.
type fakeState struct {
	exists   bool
	creates  int
	destroys int
}

type fakeService struct {
	st        *fakeState
	possible  bool
	handle    string
	createErr error
	existsErr error
	destroyEr error
}

func newFake(handle string) *fakeService {
	return &fakeService{st: &fakeState{}, possible: true, handle: handle}
}

func (f *fakeService) Possible(ctx context.Context) bool { return f.possible }

func (f *fakeService) Exists(ctx context.Context) (bool, error) {
	return f.st.exists, f.existsErr
}

func (f *fakeService) Create(ctx context.Context) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.st.creates++
	f.st.exists = true
	return nil
}

func (f *fakeService) Destroy(ctx context.Context) error {
	if f.destroyEr != nil {
		return f.destroyEr
	}
	f.st.destroys++
	f.st.exists = false
	return nil
}

func (f *fakeService) Get() (string, error) { return f.handle, nil }

// presetService carries its own service name.
type presetService struct {
	fakeService
	name string
}

func (p *presetService) ServiceName() string { return p.name }

// renamableService additionally supports rebinding its resource name.
type renamableService struct {
	fakeService
	bound string
}

func (r *renamableService) ServiceName() string { return r.bound }

func (r *renamableService) Rename(name string) Lifecycle {
	clone := *r
	clone.bound = name
	return &clone
}

func TestBaseDefaults(t *testing.T) {
	ctx := context.Background()
	var b Base

	require.True(t, b.Possible(ctx))
	_, err := b.Exists(ctx)
	require.ErrorIs(t, err, ErrNotImplemented)
	require.NoError(t, b.Create(ctx))
	require.NoError(t, b.Destroy(ctx))
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc := newFake("handle-1")
		got, cleanup, err := Acquire[string](ctx, svc)
		require.NoError(t, err)
		require.Equal(t, "handle-1", got)
		require.Equal(t, 1, svc.st.creates)

		require.NoError(t, cleanup())
		require.Equal(t, 1, svc.st.destroys)
		require.False(t, svc.st.exists)
	})

	t.Run("cleanup valid on create failure", func(t *testing.T) {
		svc := newFake("unused")
		svc.createErr = errors.New("boom")
		_, cleanup, err := Acquire[string](ctx, svc)
		require.Error(t, err)
		require.NotNil(t, cleanup)
		require.NoError(t, cleanup())
		require.Equal(t, 1, svc.st.destroys)
	})

	t.Run("cleanup survives canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		svc := newFake("handle-2")
		_, cleanup, err := Acquire[string](cctx, svc)
		require.NoError(t, err)
		cancel()
		require.NoError(t, cleanup())
		require.Equal(t, 1, svc.st.destroys)
	})
}

func TestServiceTypeName(t *testing.T) {
	require.Equal(t, "fakeService", serviceTypeName(newFake("")))
	require.Equal(t, "presetService", serviceTypeName(&presetService{name: "x"}))
}
